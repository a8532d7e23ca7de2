package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/lumicore/internal/device"
)

// History limits for GET /devices/{id}/history.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// deviceResponse is one device with its identity next to its document body.
type deviceResponse struct {
	ID     string         `json:"id"`
	Device *device.Device `json:"device"`
}

// handleListDevices returns all devices as a device document keyed by
// identity, optionally narrowed by type.
//
// Query parameters:
//   - type: only devices of this fixture type (case-insensitive)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.registry.List()

	if typ := r.URL.Query().Get("type"); typ != "" {
		devices = slices.DeleteFunc(devices, func(d *device.Device) bool {
			return !strings.EqualFold(d.Type(), typ)
		})
	}

	doc, err := device.EncodeDocument(devices)
	if err != nil {
		s.logger.Error("encoding device list failed", "error", err)
		writeInternalError(w, "failed to encode devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": json.RawMessage(doc),
		"count":   len(devices),
	})
}

// handleGetDevice returns a single device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, deviceResponse{ID: d.ID(), Device: d})
}

// handleGetParam returns one parameter value of a device.
func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	v := d.GetParam(name)
	if v == nil {
		writeNotFound(w, "parameter not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": d.ID(),
		"name":      name,
		"value":     v,
	})
}

// handleDeviceHistory returns recorded snapshots for a device, newest first.
//
// History outlives the device, so an unknown ID yields an empty list rather
// than 404.
//
// Query parameters:
//   - limit: maximum entries, 1 to 200 (default 50)
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeBadRequest(w, "limit must be an integer between 1 and 200")
			return
		}
		limit = n
	}

	id := chi.URLParam(r, "id")
	entries, err := s.history.History(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("reading device history failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to read history")
		return
	}
	if entries == nil {
		entries = []device.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"entries":   entries,
		"count":     len(entries),
	})
}

// lookupDevice resolves the {id} URL parameter, writing a 404 when the
// device is not registered.
func (s *Server) lookupDevice(w http.ResponseWriter, r *http.Request) (*device.Device, bool) {
	id := chi.URLParam(r, "id")
	d, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return nil, false
		}
		writeInternalError(w, "failed to get device")
		return nil, false
	}
	return d, true
}
