package ecoflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ecoflow/internal/engine/signing"
)

// Devices lists the devices bound to the account.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	raw, err := c.do(ctx, http.MethodGet, pathDeviceList, nil)
	if err != nil {
		return nil, err
	}

	var devices []Device
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &devices); err != nil {
			return nil, fmt.Errorf("%w: device list: %v", ErrDecode, err)
		}
	}
	return devices, nil
}

// AllQuota returns every quota the device reports.
func (c *Client) AllQuota(ctx context.Context, sn string) (Quota, error) {
	if sn == "" {
		return nil, ErrMissingSerial
	}

	data := signing.NewMapping().Set("sn", signing.String(sn))
	raw, err := c.do(ctx, http.MethodGet, pathQuotaAll, data)
	if err != nil {
		return nil, err
	}
	return decodeQuota(raw)
}

// GetQuota queries selected quotas. params is usually built with QuotaNames.
func (c *Client) GetQuota(ctx context.Context, sn string, params *signing.Mapping) (Quota, error) {
	if sn == "" {
		return nil, ErrMissingSerial
	}

	data := signing.NewMapping().
		Set("params", signing.Object(params)).
		Set("sn", signing.String(sn))

	raw, err := c.do(ctx, http.MethodPost, pathQuota, data)
	if err != nil {
		return nil, err
	}
	return decodeQuota(raw)
}

// SetQuota sends a command to the device.
func (c *Client) SetQuota(ctx context.Context, sn, cmdCode string, params *signing.Mapping) error {
	if sn == "" {
		return ErrMissingSerial
	}

	data := signing.NewMapping().
		Set("cmdCode", signing.String(cmdCode)).
		Set("params", signing.Object(params)).
		Set("sn", signing.String(sn))

	_, err := c.do(ctx, http.MethodPut, pathQuota, data)
	return err
}

// QuotaNames builds the {"quotas": [...]} parameters for GetQuota.
func QuotaNames(names ...string) *signing.Mapping {
	return signing.NewMapping().Set("quotas", signing.Strings(names...))
}

func decodeQuota(raw json.RawMessage) (Quota, error) {
	q := Quota{}
	if len(raw) == 0 || string(raw) == "null" {
		return q, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("%w: quota: %v", ErrDecode, err)
	}
	return q, nil
}
