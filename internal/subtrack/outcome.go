package subtrack

// Outcome is the result of a scheduling attempt. Every failure mode is
// recovered at the scheduler boundary and reported as one of these values;
// none of them propagate as a fault to the caller.
type Outcome int

const (
	// OutcomeScheduled means a wake-up is now registered with the facility.
	OutcomeScheduled Outcome = iota

	// OutcomeSkipped means the payable is not in the enabled set. This is a
	// deliberate skip, not an error.
	OutcomeSkipped

	// OutcomePast means the computed reminder instant was not strictly in
	// the future. Scheduling is skipped and retried on the next natural
	// recomputation, never immediately.
	OutcomePast

	// OutcomeNoPermission means the OS currently declines the exact-alarm
	// capability. Retried on the next natural trigger.
	OutcomeNoPermission

	// OutcomeOSRejected means the facility returned an error distinct from
	// permission. Logged as a soft failure; no retry loop is spawned.
	OutcomeOSRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeScheduled:
		return "scheduled"
	case OutcomeSkipped:
		return "skipped"
	case OutcomePast:
		return "past"
	case OutcomeNoPermission:
		return "no-permission"
	case OutcomeOSRejected:
		return "os-rejected"
	default:
		return "unknown"
	}
}

// Scheduled reports whether the attempt left a live alarm behind. For any
// other outcome the caller must not assume an alarm is pending.
func (o Outcome) Scheduled() bool { return o == OutcomeScheduled }
