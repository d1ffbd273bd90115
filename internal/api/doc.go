// Package api handles incoming HTTP requests: it decodes and validates
// request bodies, reads the authenticated user from the request context,
// calls the task, stats and access services, and maps their errors to
// status codes and safe messages.
package api
