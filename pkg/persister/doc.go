/*
Package persister implements the entity persister for flat key/value backends.

Each entity is stored as a JSON object under "<prefix><Entity>:<id>", with property names taken
from mapstructure tags. Pessimistic locks live under "<prefix>lock:<Entity>:<id>" and are
acquired with SET NX plus a TTL, then released with a token-checked delete, so a lock that
expired and was taken by another owner is never released by mistake.

A persister only works against the client of the session that created it. While that session
is transacting, the backend queues commands instead of answering them, so reads and lock
acquisition fail with domain.ErrReadInTransaction.
*/
package persister
