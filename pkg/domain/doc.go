/*
Package domain contains the core types shared by every layer of stash.

It defines entity descriptors, lock handles, the session lifecycle states and the error
taxonomy. This package is kept pure and free of I/O so that ports, persisters and adapters
can all depend on it without cycles.

# Key Types

  - Entity: Describes a persistence-managed type (name, Go type, identifier property).
  - LockedObject: An identity-bearing handle over a pessimistically locked entity key.
  - SessionState: The lifecycle of a session (Connected, Transacting, Disconnected).
  - TxStatus: The lifecycle of a single transaction.
*/
package domain
