package session

import "context"

// SessionCallback is a unit of work that produces a value.
type SessionCallback func(ctx context.Context, s *Session) (any, error)

// VoidSessionCallback is a unit of work that produces nothing.
type VoidSessionCallback func(ctx context.Context, s *Session) error

// Execute runs cb synchronously against the session, inside the active transaction if any.
// Errors from cb are returned unchanged.
func (s *Session) Execute(ctx context.Context, cb SessionCallback) (any, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return cb(ctx, s)
}

// ExecuteVoid is Execute for callbacks without a result.
func (s *Session) ExecuteVoid(ctx context.Context, cb VoidSessionCallback) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return cb(ctx, s)
}
