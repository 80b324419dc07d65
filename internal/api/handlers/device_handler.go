package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ecoflow/internal/engine/devices"
	"ecoflow/internal/pkg/errors"
	"ecoflow/internal/platform/models"
)

type DeviceHandler struct {
	svc *devices.Service
}

func NewDeviceHandler(svc *devices.Service) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

// List syncs with the vendor, or with ?cached=true returns the stored
// devices only.
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	var list []*models.Device
	var err error
	if r.URL.Query().Get("cached") == "true" {
		list, err = h.svc.Known()
	} else {
		list, err = h.svc.Sync(r.Context())
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Device{}
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"devices": list})
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	device, snapshot, err := h.svc.Latest(pathParam(r, "sn"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"device":          device,
		"latest_snapshot": snapshot,
	})
}

func (h *DeviceHandler) Quota(w http.ResponseWriter, r *http.Request) {
	sn := pathParam(r, "sn")
	quota, err := h.svc.Live(r.Context(), sn)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"sn": sn, "quota": quota})
}

func (h *DeviceHandler) Query(w http.ResponseWriter, r *http.Request) {
	sn := pathParam(r, "sn")

	var req struct {
		Quotas []string `json:"quotas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if len(req.Quotas) == 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "quotas must not be empty", nil)
		return
	}

	quota, err := h.svc.Query(r.Context(), sn, req.Quotas)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"sn": sn, "quota": quota})
}

func (h *DeviceHandler) Command(w http.ResponseWriter, r *http.Request) {
	sn := pathParam(r, "sn")

	var req struct {
		CmdCode string          `json:"cmdCode"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	params, err := decodeParams(req.Params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	cmd, err := h.svc.Command(r.Context(), sn, req.CmdCode, params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, cmd)
}

func (h *DeviceHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	snapshots, err := h.svc.History(pathParam(r, "sn"), limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if snapshots == nil {
		snapshots = []*models.QuotaSnapshot{}
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snapshots})
}

func (h *DeviceHandler) Commands(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	commands, err := h.svc.Commands(pathParam(r, "sn"), limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if commands == nil {
		commands = []*models.Command{}
	}
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{"commands": commands})
}

func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 || limit > 1000 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "limit must be between 0 and 1000", nil)
		return 0, false
	}
	return limit, true
}
