// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and stores
// (defined in internal/store) to fulfill application features.
//
// Key components:
//
//   - AccessService: registration, login and resolution of bearer tokens to
//     user identities.
//   - TaskService: owner-scoped task creation, listing, partial update and
//     deletion, plus task lifecycle events.
//   - StatsService: per-user task counters.
//
// Every task operation takes the owner's id explicitly. Services never read
// identity from anywhere else, so ownership cannot be bypassed by a caller
// that forgets a check.
//
// Error handling:
//   - Expected conditions are reported with the sentinels in errors.go and
//     domain validation errors, checked with errors.Is/errors.As.
//   - Unexpected failures are wrapped in ServiceError.
//   - The API layer maps both to HTTP status codes.
package service
