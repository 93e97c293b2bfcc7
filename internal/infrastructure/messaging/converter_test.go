package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleConverter(t *testing.T) {
	conv := SimpleConverter{}

	tests := []struct {
		name        string
		payload     any
		contentType string
		want        any
	}{
		{"text", "SOME MESSAGE to queue 1 !!!", ContentTypeText, "SOME MESSAGE to queue 1 !!!"},
		{"bytes", []byte{1, 2, 3}, ContentTypeBinary, []byte{1, 2, 3}},
		{"struct", struct {
			From string `json:"from"`
		}{"jms"}, ContentTypeJSON, map[string]any{"from": "jms"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct, err := conv.ToMessage(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, ct)

			got, err := conv.FromMessage(&Message{Body: body, ContentType: ct})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConverterErrors(t *testing.T) {
	conv := SimpleConverter{}

	_, _, err := conv.ToMessage(make(chan int))
	assert.Error(t, err)

	_, err = conv.FromMessage(&Message{Body: []byte("{broken"), ContentType: ContentTypeJSON})
	assert.Error(t, err)
}

func TestTemplateDecodesWithItsConverter(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.template.ConvertAndSend(context.Background(), "q", map[string]int{"count": 3}))

	msg, err := f.broker.Receive(context.Background(), "q")
	require.NoError(t, err)

	got, err := f.template.FromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(3)}, got)

	_, err = f.template.WithConverter(failingConverter{}).FromMessage(msg)
	assert.NoError(t, err)
}
