package event

// OutcomeKind discriminates the variants of PublishOutcome.
type OutcomeKind string

const (
	// OutcomePublished means every commit step succeeded and all links are
	// populated.
	OutcomePublished OutcomeKind = "published"
	// OutcomeNoConflicts means a check-only evaluation found nothing
	// blocking. No side effects were taken.
	OutcomeNoConflicts OutcomeKind = "no_conflicts"
	// OutcomeUnresolvableConflict means no video-conferencing account was
	// free for the window.
	OutcomeUnresolvableConflict OutcomeKind = "unresolvable_conflict"
	// OutcomeResolvableConflict means calendar overlaps exist and the caller
	// did not override them.
	OutcomeResolvableConflict OutcomeKind = "resolvable_conflict"
	// OutcomeUnexpected means validation failed or a collaborator call
	// failed. Links may be partially populated if the failure happened
	// mid-commit.
	OutcomeUnexpected OutcomeKind = "unexpected"
)

// Links collects the external artifacts created by a publish.
type Links struct {
	VideoJoinURL      string
	VideoAccount      string
	AdvocacyManageURL string
	AdvocacyShareURL  string
	CalendarURL       string
}

// PublishOutcome is the closed result union for publish operations. Exactly
// one variant is populated per call: Conflicts only for the conflict kinds,
// Err only for OutcomeUnexpected, and Links only for OutcomePublished or,
// partially, for a mid-commit OutcomeUnexpected.
type PublishOutcome struct {
	Kind      OutcomeKind
	Links     Links
	Conflicts []Conflict
	Err       string
}

// Published reports whether the event was fully committed.
func (o PublishOutcome) Published() bool {
	return o.Kind == OutcomePublished
}

// PublishedOutcome builds the success variant.
func PublishedOutcome(links Links) PublishOutcome {
	return PublishOutcome{Kind: OutcomePublished, Links: links}
}

// NoConflictsOutcome builds the check-only success variant.
func NoConflictsOutcome() PublishOutcome {
	return PublishOutcome{Kind: OutcomeNoConflicts}
}

// UnresolvableOutcome builds the hard-conflict variant.
func UnresolvableOutcome(conflicts []Conflict) PublishOutcome {
	return PublishOutcome{Kind: OutcomeUnresolvableConflict, Conflicts: conflicts}
}

// ResolvableOutcome builds the overridable-conflict variant.
func ResolvableOutcome(conflicts []Conflict) PublishOutcome {
	return PublishOutcome{Kind: OutcomeResolvableConflict, Conflicts: conflicts}
}

// UnexpectedOutcome builds the failure variant. partial carries whatever
// links were obtained before the failure; it is the zero value when the
// failure happened before any commit step.
func UnexpectedOutcome(err error, partial Links) PublishOutcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return PublishOutcome{Kind: OutcomeUnexpected, Links: partial, Err: msg}
}
