/*
Package finder turns "find by" method names into queries against a session.

A method name is parsed once, at registration, into one of a closed set of shapes:

	findByTitle            FindOne  -> the first match or nil
	findAllByAuthor        FindAll  -> []any
	countByAuthorAndYear   Count    -> int64
	existsByIsbn           Exists   -> bool

Properties are the mapstructure names of the entity fields, with the first letter lowered
("Isbn" -> "isbn"). A Finder holds only this parsed pattern; the session and arguments are
supplied on every Invoke and never retained, so one Finder can serve any number of sessions.
*/
package finder
