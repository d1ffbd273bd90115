// Package domain contains the core business entities of the task tracker:
// users, tasks with their closed status and priority enums, partial update
// patches and the derived task statistics. It is independent of storage and
// transport.
package domain
