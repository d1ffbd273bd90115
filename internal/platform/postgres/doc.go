// Package postgres provides PostgreSQL implementations of the persistence
// interfaces defined in internal/store. It owns the SQL text, maps driver
// errors onto the store error taxonomy, converts rows into domain entities
// and applies the embedded goose migrations.
package postgres
