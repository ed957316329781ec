// Package notify provides implementations of the notification facility.
// Posting is keyed by a group identifier: a repeat post under the same key
// replaces the earlier notification instead of stacking a second one.
package notify

// Notification is one posted (or replaced) notification.
type Notification struct {
	GroupKey string
	Title    string
	Body     string
}
