package domain

import "fmt"

// LockedObject is the handle returned by a successful pessimistic lock.
// Sessions track handles by pointer identity, never by value.
type LockedObject struct {
	Entity string
	ID     string

	// Token is the owner value stored in the backend; release only succeeds if it still matches.
	Token string
}

func (l *LockedObject) String() string {
	return fmt.Sprintf("%s[%s]", l.Entity, l.ID)
}
