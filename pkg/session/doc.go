/*
Package session implements the persistence session: the unit-of-work scoped owner of a
backend connection, a lazily built persister cache, the set of locks it holds and the
active transaction.

A Session is single-owner. It is not safe for concurrent use; bind one to a request or a
logical unit of work and Disconnect it when done. Disconnect always releases the connection,
even when some locks fail to release.

	s, err := datastore.Connect(ctx)
	if err != nil {
		return err
	}
	defer s.Disconnect(ctx)

	if err := s.Lock(ctx, book); err != nil {
		return err
	}
	tx, err := s.BeginTransaction(ctx)
	...

The raw key/value view returned by KeyValue is advisory: it swallows backend errors and
answers with absent or empty results instead.
*/
package session
