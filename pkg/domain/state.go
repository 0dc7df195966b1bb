package domain

// SessionState is the lifecycle position of a session.
type SessionState string

const (
	StateConnected    SessionState = "connected"
	StateTransacting  SessionState = "transacting"
	StateDisconnected SessionState = "disconnected" // Terminal
)

// TxStatus is the lifecycle position of a transaction.
type TxStatus string

const (
	TxActive     TxStatus = "active"
	TxCommitted  TxStatus = "committed"
	TxRolledBack TxStatus = "rolled_back"
)
