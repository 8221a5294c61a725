// Package v1 provides the REST API handlers for device registry access.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/otahub/device-registry/internal/catalog"
	"github.com/otahub/device-registry/internal/devices"
)

// DefaultIDField is the device field queried when no field parameter is given
const DefaultIDField = "codename"

// DeviceService answers device queries
type DeviceService interface {
	// GetDeviceInfo returns the merged record for one device, or nil when
	// the catalog has no such device
	GetDeviceInfo(idField, idValue string) (devices.Record, error)

	// GetAllDevices returns all merged device records
	GetAllDevices() ([]devices.Record, error)

	// GetAllJSONFiles returns the catalog files
	GetAllJSONFiles() ([]catalog.FileInfo, error)
}

// ListDevicesResponse represents the devices list response
type ListDevicesResponse struct {
	Devices []devices.Record `json:"devices"`
	Total   int              `json:"total"`
}

// ListFilesResponse represents the catalog files response
type ListFilesResponse struct {
	Files []catalog.FileInfo `json:"files"`
	Total int                `json:"total"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the device registry API with dependency injection
type Routes struct {
	service DeviceService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc DeviceService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the device registry API
func Router(svc DeviceService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Route("/devices", func(r chi.Router) {
		r.Get("/", routes.listDevices)
		r.Get("/{value}", routes.getDevice)
	})

	r.Get("/files", routes.listFiles)

	return r
}

// listDevices handles GET /api/v1/devices
func (rr *Routes) listDevices(w http.ResponseWriter, _ *http.Request) {
	all, err := rr.service.GetAllDevices()
	if err != nil {
		slog.Error("Failed to list devices", "error", err)
		rr.writeErrorResponse(w, "Failed to list devices", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, ListDevicesResponse{Devices: all, Total: len(all)})
}

// getDevice handles GET /api/v1/devices/{value}. The field matched against
// {value} defaults to codename and can be overridden with ?field=.
func (rr *Routes) getDevice(w http.ResponseWriter, r *http.Request) {
	value := chi.URLParam(r, "value")

	field := r.URL.Query().Get("field")
	if field == "" {
		field = DefaultIDField
	}

	device, err := rr.service.GetDeviceInfo(field, value)
	if err != nil {
		slog.Error("Failed to get device", "field", field, "value", value, "error", err)
		rr.writeErrorResponse(w, "Failed to get device", http.StatusInternalServerError)
		return
	}
	if device == nil {
		rr.writeErrorResponse(w, "Device not found", http.StatusNotFound)
		return
	}

	rr.writeJSONResponse(w, device)
}

// listFiles handles GET /api/v1/files
func (rr *Routes) listFiles(w http.ResponseWriter, _ *http.Request) {
	files, err := rr.service.GetAllJSONFiles()
	if err != nil {
		slog.Error("Failed to list catalog files", "error", err)
		rr.writeErrorResponse(w, "Failed to list catalog files", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, ListFilesResponse{Files: files, Total: len(files)})
}

// writeJSONResponse writes a JSON response with status 200
func (*Routes) writeJSONResponse(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a standardized JSON error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
