package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Portfolio state
	api.HandleFunc("/portfolio/snapshot", handler.GetSnapshot).Methods("GET")
	api.HandleFunc("/portfolio/positions", handler.GetPositions).Methods("GET")
	api.HandleFunc("/portfolio/positions/{ticker}", handler.GetPositionHistory).Methods("GET")
	api.HandleFunc("/portfolio/orders", handler.GetOrders).Methods("GET")
	api.HandleFunc("/portfolio/cash", handler.GetCash).Methods("GET")
	api.HandleFunc("/portfolio/candles/{ticker}", handler.GetCandles).Methods("GET")
	api.HandleFunc("/research/latest", handler.GetResearch).Methods("GET")

	// Cycle control
	api.HandleFunc("/cycles/status", handler.GetCycleStatus).Methods("GET")
	api.HandleFunc("/cycles/tactical", handler.TriggerTactical).Methods("POST")
	api.HandleFunc("/cycles/strategic", handler.TriggerStrategic).Methods("POST")

	return r
}
