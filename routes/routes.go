package routes

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"p9e.in/eicr/handlers"
	"p9e.in/eicr/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(h *handlers.ScheduleHandler, exportDir string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods("GET")

	if exportDir != "" {
		r.PathPrefix("/exports/").Handler(
			http.StripPrefix("/exports/", http.FileServer(http.Dir(exportDir))),
		)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	registerScheduleRoutes(api, h)

	return middleware.CORS(r)
}

// registerScheduleRoutes registers the circuit schedule endpoints
func registerScheduleRoutes(api *mux.Router, h *handlers.ScheduleHandler) {
	api.HandleFunc("/options", h.GetOptions).Methods("GET")
	api.HandleFunc("/presets", h.GetPresets).Methods("GET")

	api.HandleFunc("/schedules", h.ListSchedules).Methods("GET")
	api.HandleFunc("/schedules", h.CreateSchedule).Methods("POST")
	api.HandleFunc("/schedules/{id}", h.GetSchedule).Methods("GET")
	api.HandleFunc("/schedules/{id}/audits", h.GetAudits).Methods("GET")

	// Circuits
	api.HandleFunc("/schedules/{id}/circuits", h.AddCircuit).Methods("POST")
	api.HandleFunc("/schedules/{id}/circuits/{circuitId}", h.UpdateCircuit).Methods("PATCH")
	api.HandleFunc("/schedules/{id}/circuits/{circuitId}", h.DeleteCircuit).Methods("DELETE")
	api.HandleFunc("/schedules/{id}/circuits/{circuitId}/ring-continuity", h.CalculateRingContinuity).Methods("POST")

	// Bulk actions
	api.HandleFunc("/schedules/{id}/bulk/{action}", h.BulkFill).Methods("POST")
	api.HandleFunc("/schedules/{id}/presets/apply", h.ApplyPreset).Methods("POST")

	// Exports
	api.HandleFunc("/schedules/{id}/export.xlsx", h.ExportXLSX).Methods("GET")
	api.HandleFunc("/schedules/{id}/export.csv", h.ExportCSV).Methods("GET")
	api.HandleFunc("/schedules/{id}/exports", h.StoreExport).Methods("POST")
}
