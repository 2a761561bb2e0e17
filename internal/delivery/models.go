package delivery

import "fmt"

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeHTTPError      Outcome = "http_error"
	OutcomeTransportError Outcome = "transport_error"
)

// Attempt is the result of one POST to the webhook endpoint. It never leaves
// the pipeline except through logs.
type Attempt struct {
	Number     int
	Outcome    Outcome
	StatusCode int
	Body       string
	Message    string
}

func (a Attempt) Err() error {
	if a.Outcome == OutcomeSuccess {
		return nil
	}
	return &AttemptError{Attempt: a}
}

type AttemptError struct {
	Attempt Attempt
}

func (e *AttemptError) Error() string {
	switch e.Attempt.Outcome {
	case OutcomeHTTPError:
		return fmt.Sprintf("webhook returned status %d: %s", e.Attempt.StatusCode, e.Attempt.Body)
	default:
		return fmt.Sprintf("webhook transport error: %s", e.Attempt.Message)
	}
}
