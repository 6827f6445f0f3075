// Package postgres provides PostgreSQL-backed implementations of the
// storage interfaces defined in the internal/store package, along with
// connection setup and embedded schema migrations. It handles query
// execution and the mapping between domain entities and database rows.
package postgres
