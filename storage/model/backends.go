package model

// Backends groups all storage interfaces used by the application.
type Backends struct {
	// Durable outlives browser sessions and server restarts
	Durable KeyValueStore
	// Sessions holds state scoped to a single browser session
	Sessions SessionBackend
	// Close releases the resources held by the backends
	Close func() error
}
