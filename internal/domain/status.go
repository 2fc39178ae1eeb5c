package domain

// TaskStatus is the lifecycle state of a publication task.
type TaskStatus string

const (
	// StatusPending means the task is waiting to be picked up by the dispatcher.
	StatusPending TaskStatus = "pending"

	// StatusProcessing means a worker has claimed the task and a send is in flight.
	StatusProcessing TaskStatus = "processing"

	// StatusCompleted means the message was sent and history was recorded. Terminal.
	StatusCompleted TaskStatus = "completed"

	// StatusFailed means the task ended with an unrecoverable error. Terminal.
	StatusFailed TaskStatus = "failed"

	// StatusRetrying means the task failed transiently and is eligible for pickup
	// again. Treated as pending by due-task selection.
	StatusRetrying TaskStatus = "retrying"

	// StatusFloodWait means the provider asked us to back off; the task resumes
	// once the advised wait expires.
	StatusFloodWait TaskStatus = "flood_wait"
)

// CanTransitionTo reports whether moving from s to next is a legal transition.
// Terminal states never transition; completed is reachable only from processing.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case StatusPending, StatusRetrying:
		return next == StatusProcessing
	case StatusProcessing:
		switch next {
		case StatusCompleted, StatusFailed, StatusPending, StatusRetrying, StatusFloodWait:
			return true
		}
		return false
	case StatusFloodWait:
		return next == StatusPending
	default:
		// completed and failed are terminal
		return false
	}
}

// IsTerminal reports whether s is a final state for a task instance.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ActorKind selects which Telegram identity performs the send.
type ActorKind string

const (
	// ActorBot publishes through the shared bot token.
	ActorBot ActorKind = "bot"

	// ActorAccount publishes through a user-owned MTProto account.
	ActorAccount ActorKind = "account"
)

// PublishMode governs duplicate-check exemption and recurrence.
type PublishMode string

const (
	// ModeImmediate dispatches as soon as possible, once.
	ModeImmediate PublishMode = "immediate"

	// ModeScheduled dispatches at a user-chosen time, once.
	ModeScheduled PublishMode = "scheduled"

	// ModeAutopublish dispatches daily per the owning AutopublishConfig; each
	// successful send spawns a fresh task for the next day.
	ModeAutopublish PublishMode = "autopublish"
)

// PacingMode is the per-account cadence policy for spacing outgoing messages.
type PacingMode string

const (
	PacingSafe       PacingMode = "safe"
	PacingNormal     PacingMode = "normal"
	PacingAggressive PacingMode = "aggressive"
	PacingSmart      PacingMode = "smart"
	PacingFix        PacingMode = "fix"
)

// PublicationType keys the per-type duplicate policy toggles.
type PublicationType string

const (
	TypeManualBot          PublicationType = "manual_bot"
	TypeManualAccount      PublicationType = "manual_account"
	TypeAutopublishBot     PublicationType = "autopublish_bot"
	TypeAutopublishAccount PublicationType = "autopublish_account"
)

// SubscriptionStatus is the lifecycle state of a chat subscription task.
type SubscriptionStatus string

const (
	SubscriptionPending    SubscriptionStatus = "pending"
	SubscriptionProcessing SubscriptionStatus = "processing"
	SubscriptionCompleted  SubscriptionStatus = "completed"
	SubscriptionFailed     SubscriptionStatus = "failed"

	// SubscriptionFloodWait means the task hit too many consecutive flood errors
	// and is paused until an operator resumes it.
	SubscriptionFloodWait SubscriptionStatus = "flood_wait"
)
