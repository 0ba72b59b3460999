// Package uid provides the identifier generators used across modules:
// snowflake numbers for database rows, UUIDs for correlation IDs, and
// object IDs for storage keys.
package uid

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
