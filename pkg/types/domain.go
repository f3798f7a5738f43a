package types

// ServerInfo is the descriptor record the kuuzuki server writes to its state
// directory when it binds a port. It is produced by the server process itself;
// this program only ever reads it. Presence of the record does not imply the
// server is still alive; callers must health-probe the URL before trusting it.
type ServerInfo struct {
	// TCP port the server bound.
	// example: 4096
	Port uint16 `json:"port" example:"4096"`
	// Hostname or address the server bound.
	// example: 127.0.0.1
	Hostname string `json:"hostname" example:"127.0.0.1"`
	// Base URL derived from hostname and port.
	// example: http://127.0.0.1:4096
	URL string `json:"url" example:"http://127.0.0.1:4096"`
	// Process ID of the server that wrote the record.
	// example: 12345
	PID uint32 `json:"pid" example:"12345"`
	// ISO-8601 timestamp of when the server started.
	// example: 2024-01-01T00:00:00Z
	StartTime string `json:"startTime" example:"2024-01-01T00:00:00Z"`
}

// DiscoveredServer is the sole artifact handed back to the host shell after a
// successful discovery. No other state is retained between discovery calls;
// each call re-verifies liveness from scratch.
type DiscoveredServer struct {
	// Live base URL of the server.
	// example: http://127.0.0.1:4096
	URL string `json:"url" example:"http://127.0.0.1:4096"`
}
