/*
Package resilience provides the circuit breaker that guards outbound calls.

# Usage

	breaker := resilience.New("self", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
	})

	resp, err := resilience.Do(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

Time comes from Settings.Clock, so tests drive transitions with a
clockz.FakeClock instead of sleeping.
*/
package resilience
