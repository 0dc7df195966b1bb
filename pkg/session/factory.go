package session

import "context"

// Factory opens sessions against a configured backend.
type Factory interface {
	// Connect opens a new session with its own connection.
	Connect(ctx context.Context) (*Session, error)

	// Close releases resources shared by the sessions the factory opened.
	Close() error
}
