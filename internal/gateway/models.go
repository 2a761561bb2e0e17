package gateway

// SendRequest is the body of POST /send. Coordinates are pointers so that an
// explicit 0 is distinguishable from an absent field.
type SendRequest struct {
	To        string   `json:"to"`
	Message   string   `json:"message"`
	Type      string   `json:"type"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
}

const (
	MessageTypeText     = "text"
	MessageTypeLocation = "location"
)

type SendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	WhatsApp  string `json:"whatsapp"`
	Timestamp string `json:"timestamp"`
}

const (
	StatusRunning     = "running"
	SessionConnected  = "connected"
	SessionConnecting = "connecting"
)
