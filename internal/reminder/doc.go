// Package reminder runs the recurring deadline scan that emails users about
// tasks due soon.
//
// Each cycle opens its own store session, selects every user's unfinished
// tasks whose deadline falls within the configured window, and sends one
// reminder per task. Reminders are not de-duplicated across cycles: a task
// that stays in the window is reminded about on every cycle.
package reminder
