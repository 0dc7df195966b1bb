package session

import (
	"context"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// Transaction is a begun multi-operation unit of work.
// It is terminal once committed or rolled back.
type Transaction struct {
	session *Session
	handle  ports.TxHandle
	status  domain.TxStatus
}

// BeginTransaction asks the backend to start queueing writes.
// A session holds at most one active transaction.
func (s *Session) BeginTransaction(ctx context.Context) (*Transaction, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if s.tx != nil {
		s.metrics.Transaction("refused")
		return nil, &domain.TransactionCreationError{
			Message: domain.ErrTransactionActive.Error(),
			Err:     domain.ErrTransactionActive,
		}
	}

	handle, err := s.client.Multi(ctx)
	if err != nil {
		s.metrics.Transaction("refused")
		return nil, &domain.TransactionCreationError{Message: err.Error(), Err: err}
	}

	s.tx = &Transaction{
		session: s,
		handle:  handle,
		status:  domain.TxActive,
	}
	s.state = domain.StateTransacting
	s.metrics.Transaction("begun")
	return s.tx, nil
}

// Status returns the lifecycle position of the transaction.
func (t *Transaction) Status() domain.TxStatus {
	return t.status
}

// IsActive reports whether the transaction can still be committed or rolled back.
func (t *Transaction) IsActive() bool {
	return t.status == domain.TxActive
}

// Commit applies the queued writes. The transaction ends even if the backend fails.
func (t *Transaction) Commit(ctx context.Context) error {
	if !t.IsActive() {
		return domain.ErrTransactionClosed
	}
	err := t.handle.Exec(ctx)
	if err != nil {
		t.finish(domain.TxRolledBack)
		return err
	}
	t.finish(domain.TxCommitted)
	return nil
}

// Rollback discards the queued writes.
func (t *Transaction) Rollback(ctx context.Context) error {
	if !t.IsActive() {
		return domain.ErrTransactionClosed
	}
	err := t.handle.Discard(ctx)
	t.finish(domain.TxRolledBack)
	return err
}

func (t *Transaction) finish(status domain.TxStatus) {
	t.status = status
	s := t.session
	if s.tx == t {
		s.tx = nil
		if s.state == domain.StateTransacting {
			s.state = domain.StateConnected
		}
	}
	s.metrics.Transaction(string(status))
}
