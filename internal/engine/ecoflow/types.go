package ecoflow

import (
	"bytes"
	"encoding/json"
	"sort"
)

type envelope struct {
	Code            string          `json:"code"`
	Message         string          `json:"message"`
	Data            json.RawMessage `json:"data"`
	EagleEyeTraceID string          `json:"eagleEyeTraceId"`
	TID             string          `json:"tid"`
}

type Device struct {
	SN          string `json:"sn"`
	DeviceName  string `json:"deviceName"`
	ProductName string `json:"productName,omitempty"`
	Online      Flag   `json:"online"`
}

// Flag decodes the vendor's online marker, which arrives as either a JSON
// boolean or 0/1.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "true", "1", `"1"`:
		*f = true
	case "false", "0", `"0"`, "null":
		*f = false
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}

// Quota is a device's telemetry keyed by quota name, e.g. "20_1.supplyPriority".
type Quota map[string]any

// SortedKeys returns the quota names in byte-wise order.
func (q Quota) SortedKeys() []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats counts vendor calls made by a Client.
type Stats struct {
	Requests int64 `json:"requests"`
	Retries  int64 `json:"retries"`
	Failures int64 `json:"failures"`
}
