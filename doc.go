// Package stash is a persistence session layer over key/value datastores.
//
// A session owns one exclusive backend connection. It tracks the entities
// locked through it, brokers a single transaction at a time and routes
// entity operations to per-type persisters. Finders turn method names such
// as "findByTitleAndYear" into queries run against a session.
//
// Open builds a session factory from a Config:
//
//	mapping := mapping.NewRegistry()
//	mapping.MustRegister(Book{})
//
//	factory, err := stash.Open(config.Default(), mapping)
//	if err != nil {
//		return err
//	}
//	defer factory.Close()
//
//	s, err := factory.Connect(ctx)
//	if err != nil {
//		return err
//	}
//	defer s.Disconnect(ctx)
package stash
