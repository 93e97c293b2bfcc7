package messaging

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Content types produced by SimpleConverter
const (
	ContentTypeText   = "text/plain"
	ContentTypeBinary = "application/octet-stream"
	ContentTypeJSON   = "application/json"
)

// Converter turns payloads into message bodies and back
type Converter interface {
	ToMessage(payload any) (body []byte, contentType string, err error)
	FromMessage(msg *Message) (any, error)
}

// SimpleConverter maps strings to text, byte slices to binary and anything
// else to JSON.
type SimpleConverter struct{}

// ToMessage encodes payload
func (SimpleConverter) ToMessage(payload any) ([]byte, string, error) {
	switch v := payload.(type) {
	case string:
		return []byte(v), ContentTypeText, nil
	case []byte:
		return v, ContentTypeBinary, nil
	default:
		body, err := sonic.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode payload: %w", err)
		}
		return body, ContentTypeJSON, nil
	}
}

// FromMessage decodes the body according to its content type
func (SimpleConverter) FromMessage(msg *Message) (any, error) {
	switch msg.ContentType {
	case ContentTypeText:
		return string(msg.Body), nil
	case ContentTypeJSON:
		var v any
		if err := sonic.Unmarshal(msg.Body, &v); err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", msg.ID, err)
		}
		return v, nil
	default:
		return msg.Body, nil
	}
}
