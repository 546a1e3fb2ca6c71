package event

import "time"

// ConflictKind identifies which collaborator reported the overlap.
type ConflictKind string

const (
	// ConflictKindVideoConferencing marks a double-booked video account.
	// These conflicts are unresolvable: the pool of accounts is finite and
	// no override exists.
	ConflictKindVideoConferencing ConflictKind = "video_conferencing"
	// ConflictKindCalendar marks an overlapping calendar entry. These are
	// informational and may be overridden by explicit caller policy.
	ConflictKindCalendar ConflictKind = "calendar"
)

// Conflict describes one overlapping booking found during classification.
// VideoAccount is populated only for video-conferencing conflicts.
type Conflict struct {
	Kind         ConflictKind
	Title        string
	Start        time.Time
	End          time.Time
	VideoAccount string
}

// Resolvable reports whether the conflict may be overridden by caller policy.
func (c Conflict) Resolvable() bool {
	return c.Kind == ConflictKindCalendar
}
