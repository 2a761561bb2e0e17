package session

import (
	"encoding/json"
	"fmt"

	"wahook/pkg/models"
)

// DecodeInboundEvent maps a "message" envelope to a validated InboundEvent.
func DecodeInboundEvent(env models.Envelope) (models.InboundEvent, error) {
	var ev models.InboundEvent
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		return models.InboundEvent{}, fmt.Errorf("decode inbound event: %w", err)
	}

	if ev.MessageID == "" {
		ev.MessageID = env.ID
	}

	if err := models.ValidateInboundEvent(&ev); err != nil {
		return models.InboundEvent{}, err
	}

	return ev, nil
}

func DecodeState(env models.Envelope) (models.StatePayload, error) {
	var st models.StatePayload
	if err := json.Unmarshal(env.Payload, &st); err != nil {
		return models.StatePayload{}, fmt.Errorf("decode state: %w", err)
	}
	if st.State == "" {
		return models.StatePayload{}, &models.ValidationError{Field: "state", Message: "state is required"}
	}
	return st, nil
}
