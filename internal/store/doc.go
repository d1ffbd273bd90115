// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// It also provides the shared error taxonomy (ErrNotFound, ErrDuplicate and
// their entity-specific variants) and RunInTransaction.
package store
