// Package notifications pushes run results to an ntfy topic.
//
// NewService returns a no-op publisher when notifications.ntfy_topic is empty,
// so callers publish unconditionally. Events outside the enumerated set are
// ignored.
package notifications
