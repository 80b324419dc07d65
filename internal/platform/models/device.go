package models

type Device struct {
	SN          string `json:"sn"`
	Name        string `json:"name"`
	ProductName string `json:"product_name,omitempty"`
	Online      bool   `json:"online"`
	LastSeenAt  *int64 `json:"last_seen_at,omitempty"`
	UpdatedAt   int64  `json:"updated_at"`
}

type QuotaSnapshot struct {
	ID         string         `json:"id"`
	DeviceSN   string         `json:"device_sn"`
	Payload    map[string]any `json:"payload"` // JSON in DB
	CapturedAt int64          `json:"captured_at"`
}

const (
	CommandStatusOK     = "ok"
	CommandStatusFailed = "failed"
)

type Command struct {
	ID        string         `json:"id"`
	DeviceSN  string         `json:"device_sn"`
	CmdCode   string         `json:"cmd_code"`
	Params    map[string]any `json:"params"` // JSON in DB
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt int64          `json:"created_at"`
}
