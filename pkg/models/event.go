package models

import "time"

type ChatType string

const (
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
)

func (c ChatType) Valid() bool {
	return c == ChatTypePrivate || c == ChatTypeGroup
}

// EventMeta is everything about an inbound message except sender and text.
type EventMeta struct {
	MessageID   string   `json:"messageId"`
	ChatType    ChatType `json:"chatType"`
	ChatName    string   `json:"chatName"`
	MessageType string   `json:"messageType"`
	HasMedia    bool     `json:"hasMedia"`
	Timestamp   int64    `json:"timestamp"` // epoch seconds
	IsFromMe    bool     `json:"isFromMe"`
}

// InboundEvent is one message received by the session. It is not persisted.
type InboundEvent struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
	EventMeta
}

// WebhookPayload is the JSON body posted to the external endpoint.
type WebhookPayload struct {
	Sender           string   `json:"sender"`
	Message          string   `json:"message"`
	Timestamp        string   `json:"timestamp"`
	MessageID        string   `json:"messageId"`
	ChatType         ChatType `json:"chatType"`
	ChatName         string   `json:"chatName"`
	MessageType      string   `json:"messageType"`
	HasMedia         bool     `json:"hasMedia"`
	IsFromMe         bool     `json:"isFromMe"`
	MessageTimestamp int64    `json:"messageTimestamp"`
}

const ForwardTimeLayout = "2006-01-02T15:04:05.000Z07:00"

func NewWebhookPayload(ev InboundEvent, forwardedAt time.Time) WebhookPayload {
	return WebhookPayload{
		Sender:           ev.Sender,
		Message:          ev.Body,
		Timestamp:        forwardedAt.UTC().Format(ForwardTimeLayout),
		MessageID:        ev.MessageID,
		ChatType:         ev.ChatType,
		ChatName:         ev.ChatName,
		MessageType:      ev.MessageType,
		HasMedia:         ev.HasMedia,
		IsFromMe:         ev.IsFromMe,
		MessageTimestamp: ev.Timestamp,
	}
}
