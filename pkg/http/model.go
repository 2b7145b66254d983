package http

import "time"

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"name"`
	Message string                 `json:"message,omitempty" example:"Name is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// FaultEnvelope is the minimal body rendered for unhandled faults (HTTP 500).
type FaultEnvelope struct {
	Error   string    `json:"error" example:"internal_error"`
	Message string    `json:"message" example:"aggregation fault"`
	AsOf    time.Time `json:"asOf"`
}
