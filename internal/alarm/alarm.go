// Package alarm provides implementations of the exact-alarm facility. The
// facility's table is external state the scheduler never caches: each backend
// owns a table of one-shot wake-ups keyed by an integer, with replace
// semantics on schedule.
package alarm

import "time"

// Pending is one registered wake-up.
type Pending struct {
	Key       int64
	PayableID string
	At        time.Time
}
