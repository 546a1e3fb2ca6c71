package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/event-publisher/internal/conflict"
	"github.com/example/event-publisher/internal/event"
)

// VideoConferencing is the video collaborator capability consumed by the
// orchestrator.
type VideoConferencing interface {
	ListAvailability(ctx context.Context, window event.TimeWindow) ([]conflict.AccountBookings, error)
	CreateMeeting(ctx context.Context, title string, window event.TimeWindow, account string) (string, error)
}

// Calendar is the calendaring collaborator capability consumed by the
// orchestrator.
type Calendar interface {
	FindConflicts(ctx context.Context, window event.TimeWindow) ([]event.Booking, error)
	CreateEvent(ctx context.Context, info event.Info) (string, error)
}

// AdvocacyLinks are the artifacts returned by the advocacy platform for a
// created event.
type AdvocacyLinks struct {
	ManageURL string
	ShareURL  string
}

// AdvocacyPlatform is the advocacy collaborator capability consumed by the
// orchestrator.
type AdvocacyPlatform interface {
	CreateEvent(ctx context.Context, info event.Info) (AdvocacyLinks, error)
}

// PublishService runs the end-to-end publish transaction: classify
// conflicts, gate on severity and caller policy, then commit the video
// meeting, the advocacy event and the calendar event in that fixed order.
// Publish never returns an error; every failure is folded into the outcome
// union.
type PublishService struct {
	video      VideoConferencing
	calendar   Calendar
	advocacy   AdvocacyPlatform
	classifier *conflict.Classifier
	logger     *slog.Logger
}

// NewPublishService wires the collaborators consumed during a publish.
func NewPublishService(video VideoConferencing, calendar Calendar, advocacy AdvocacyPlatform) *PublishService {
	return NewPublishServiceWithLogger(video, calendar, advocacy, nil)
}

// NewPublishServiceWithLogger wires collaborators plus a base logger.
func NewPublishServiceWithLogger(video VideoConferencing, calendar Calendar, advocacy AdvocacyPlatform, logger *slog.Logger) *PublishService {
	return &PublishService{
		video:      video,
		calendar:   calendar,
		advocacy:   advocacy,
		classifier: conflict.NewClassifier(video, calendar),
		logger:     defaultLogger(logger),
	}
}

// Publish coordinates the publication of the event across all three
// collaborators.
//
// The commit sequence is strictly ordered and partially committing: a
// failure after at least one creation succeeded is reported as the
// Unexpected variant carrying whatever links were already obtained. Already
// created external resources are not rolled back.
func (s *PublishService) Publish(ctx context.Context, info event.Info, policy PublishPolicy) event.PublishOutcome {
	logger := serviceLogger(ctx, s.logger, "publish", "publish", "title", info.Title)

	if problems := info.Validate(); problems != nil {
		vErr := &ValidationError{}
		vErr.addAll(problems)
		logger.Error("event rejected before any collaborator call", "error_kind", ErrorKind(vErr), "fields", problems)
		return event.UnexpectedOutcome(fmt.Errorf("invalid event: %s", flattenProblems(problems)), event.Links{})
	}

	if info.Country == "" {
		info.Country = event.DefaultCountry
	}

	window := info.Window()
	classified, err := s.classifier.Detect(ctx, window)
	if err != nil {
		logger.Error("conflict classification failed", "error", err)
		return event.UnexpectedOutcome(err, event.Links{})
	}

	// A video conflict is a hard double-booking of a finite resource; it
	// short-circuits before the resolvable check so callers never see a
	// mixed conflict list.
	if classified.AvailableAccount == "" {
		logger.Info("no video account available", "conflicts", len(classified.VideoConflicts))
		return event.UnresolvableOutcome(classified.VideoConflicts)
	}

	if len(classified.CalendarConflicts) > 0 && !policy.IgnoreResolvableConflicts {
		logger.Info("calendar overlaps reported to caller", "conflicts", len(classified.CalendarConflicts))
		return event.ResolvableOutcome(classified.CalendarConflicts)
	}

	if policy.CheckOnly {
		return event.NoConflictsOutcome()
	}

	return s.commit(ctx, logger, info, classified.AvailableAccount)
}

// commit performs the creation steps in order. links accumulates partial
// progress so a mid-sequence failure still hands the caller everything that
// was created.
func (s *PublishService) commit(ctx context.Context, logger *slog.Logger, info event.Info, account string) event.PublishOutcome {
	var links event.Links

	joinURL, err := s.video.CreateMeeting(ctx, info.Title, info.Window(), account)
	if err != nil {
		logger.Error("video meeting creation failed", "account", account, "error", err)
		return event.UnexpectedOutcome(fmt.Errorf("create video meeting: %w", err), links)
	}
	links.VideoJoinURL = joinURL
	links.VideoAccount = account

	advocacyInfo := info
	advocacyInfo.Instructions = fmt.Sprintf("Video call: %s \n\n %s", joinURL, info.Instructions)
	advocacy, err := s.advocacy.CreateEvent(ctx, advocacyInfo)
	if err != nil {
		logger.Error("advocacy event creation failed", "error", err)
		return event.UnexpectedOutcome(fmt.Errorf("create advocacy event: %w", err), links)
	}
	links.AdvocacyManageURL = advocacy.ManageURL
	links.AdvocacyShareURL = advocacy.ShareURL

	calendarInfo := info
	calendarInfo.Description = fmt.Sprintf("RSVP: %s \n\n %s", advocacy.ShareURL, info.Description)
	calendarURL, err := s.calendar.CreateEvent(ctx, calendarInfo)
	if err != nil {
		logger.Error("calendar event creation failed", "error", err)
		return event.UnexpectedOutcome(fmt.Errorf("create calendar event: %w", err), links)
	}
	links.CalendarURL = calendarURL

	logger.Info("event published", "video_account", account)
	return event.PublishedOutcome(links)
}

func flattenProblems(problems map[string]string) string {
	fields := make([]string, 0, len(problems))
	for field := range problems {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := ""
	for _, field := range fields {
		if out != "" {
			out += "; "
		}
		out += field + ": " + problems[field]
	}
	return out
}
