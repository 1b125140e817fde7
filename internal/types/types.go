// README: Identifier value object shared across modules.
package types

// ID is an opaque row identifier (UUID text in Postgres).
type ID string

func (id ID) String() string { return string(id) }
