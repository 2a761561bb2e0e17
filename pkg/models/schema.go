package models

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateEnvelope(env *Envelope) error {
	if env == nil {
		return &ValidationError{
			Field:   "envelope",
			Message: "envelope cannot be nil",
		}
	}

	if env.Type == "" {
		return &ValidationError{
			Field:   "type",
			Message: "envelope type is required",
		}
	}

	if len(env.Payload) == 0 {
		return &ValidationError{
			Field:   "payload",
			Message: "envelope payload is required",
		}
	}

	return nil
}

func ValidateInboundEvent(ev *InboundEvent) error {
	if ev.Sender == "" {
		return &ValidationError{
			Field:   "sender",
			Message: "sender is required",
		}
	}

	if !ev.ChatType.Valid() {
		return &ValidationError{
			Field:   "chatType",
			Message: fmt.Sprintf("chat type must be private or group, got %q", ev.ChatType),
		}
	}

	if ev.Timestamp < 0 {
		return &ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be non-negative",
		}
	}

	return nil
}
