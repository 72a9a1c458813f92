// Package notifications delivers daemon lifecycle events via ntfy push.
//
// The default implementation publishes to the topic configured in
// [notifications]; without a topic every call is a no-op so callers never
// need to check whether notifications are enabled.
package notifications
