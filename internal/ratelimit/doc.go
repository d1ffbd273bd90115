// Package ratelimit provides a Redis-backed fixed-window request limiter.
//
// Each key (typically a client IP) gets a counter that is created on the first
// request of a window and expires when the window ends.
package ratelimit
