package types

// LocateResponse is returned by GET /server/locate and POST /server/ensure.
type LocateResponse struct {
	// Whether a healthy server was found.
	// example: true
	Found bool `json:"found"`
	// Base URL of the server when found.
	// example: http://127.0.0.1:4096
	URL string `json:"url,omitempty" example:"http://127.0.0.1:4096"`
}

// InfoResponse wraps the persisted descriptor returned by GET /server/info.
// Found is false when no descriptor exists or it references a dead process;
// both are ordinary outcomes, not errors.
type InfoResponse struct {
	// Whether a usable descriptor record was found.
	// example: true
	Found bool `json:"found"`
	// The descriptor, when found.
	Info *ServerInfo `json:"info,omitempty"`
}

// HealthResponse is returned by GET /server/health.
type HealthResponse struct {
	// Whether the probed URL answered 2xx on /health.
	// example: false
	Reachable bool `json:"reachable"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: server failed to become healthy within 10s
	Error string `json:"error" example:"server failed to become healthy within 10s"`
	// Machine-readable failure kind: config, persistence, resource, spawn, timeout.
	// example: timeout
	Kind string `json:"kind,omitempty" example:"timeout"`
	// HTTP status code.
	// example: 504
	Code int `json:"code" example:"504"`
}
