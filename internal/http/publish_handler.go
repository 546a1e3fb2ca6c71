package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/event-publisher/internal/application"
	"github.com/example/event-publisher/internal/event"
)

type publisher interface {
	Publish(ctx context.Context, info event.Info, policy application.PublishPolicy) event.PublishOutcome
}

type PublishHandler struct {
	service   publisher
	responder responder
	logger    *slog.Logger
}

func NewPublishHandler(service publisher, logger *slog.Logger) *PublishHandler {
	base := defaultLogger(logger)
	return &PublishHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PublishHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PublishHandler", operation, attrs...)
}

func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Publish", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode publish request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Publish", "title", req.Event.Title)

	info, problems := req.Event.toInfo()
	if len(problems) > 0 {
		logger.ErrorContext(r.Context(), "publish request rejected", "error_kind", "validation")
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  problems,
		})
		return
	}

	outcome := h.service.Publish(r.Context(), info, application.PublishPolicy{
		IgnoreResolvableConflicts: req.IgnoreResolvableConflicts,
		CheckOnly:                 req.CheckOnly,
	})

	logger.With("outcome", string(outcome.Kind)).InfoContext(r.Context(), "publish evaluated")
	h.responder.writeJSON(r.Context(), w, statusForOutcome(outcome.Kind), outcomeResponse{Outcome: toOutcomeDTO(outcome)})
}

// statusForOutcome maps the publish result union onto HTTP statuses. A
// conflict answer carries the conflict list so the caller can resubmit with
// the override flag; a collaborator failure answers 502 with whatever links
// were committed before the failure.
func statusForOutcome(kind event.OutcomeKind) int {
	switch kind {
	case event.OutcomePublished:
		return http.StatusCreated
	case event.OutcomeNoConflicts:
		return http.StatusOK
	case event.OutcomeUnresolvableConflict, event.OutcomeResolvableConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

type publishRequest struct {
	Event                     eventPayload `json:"event"`
	IgnoreResolvableConflicts bool         `json:"ignore_resolvable_conflicts"`
	CheckOnly                 bool         `json:"check_only"`
}

type eventPayload struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Instructions  string `json:"instructions"`
	Start         string `json:"start"`
	End           string `json:"end"`
	LocationName  string `json:"location_name"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	Region        string `json:"region"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// usStates is the set of two-letter codes accepted for US events.
var usStates = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {},
	"DE": {}, "FL": {}, "GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {},
	"IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {}, "MA": {},
	"MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {},
	"NH": {}, "NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {},
	"OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {}, "SD": {}, "TN": {},
	"TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {},
	"WY": {}, "DC": {},
}

// toInfo parses the wire payload into the domain type. Timestamps must be
// RFC 3339 with an explicit offset; region and postal code are checked
// against US forms when the event is in the US.
func (p eventPayload) toInfo() (event.Info, map[string]string) {
	problems := make(map[string]string)

	info := event.Info{
		Title:         strings.TrimSpace(p.Title),
		Description:   p.Description,
		Instructions:  p.Instructions,
		LocationName:  strings.TrimSpace(p.LocationName),
		StreetAddress: strings.TrimSpace(p.StreetAddress),
		City:          strings.TrimSpace(p.City),
		Region:        strings.ToUpper(strings.TrimSpace(p.Region)),
		PostalCode:    strings.TrimSpace(p.PostalCode),
		Country:       strings.ToUpper(strings.TrimSpace(p.Country)),
	}

	if p.Start == "" {
		problems["start"] = "start is required"
	} else if start, err := time.Parse(time.RFC3339, p.Start); err != nil {
		problems["start"] = "start must be RFC 3339 with a UTC offset"
	} else {
		info.Start = start
	}

	if p.End == "" {
		problems["end"] = "end is required"
	} else if end, err := time.Parse(time.RFC3339, p.End); err != nil {
		problems["end"] = "end must be RFC 3339 with a UTC offset"
	} else {
		info.End = end
	}

	if info.Country == "" {
		info.Country = event.DefaultCountry
	}
	if info.Country == "US" {
		if _, ok := usStates[info.Region]; !ok {
			problems["region"] = "region must be a two-letter US state code"
		}
		if !isFiveDigits(info.PostalCode) {
			problems["postal_code"] = "postal code must be five digits long"
		}
	}

	if len(problems) == 0 {
		for field, msg := range info.Validate() {
			problems[field] = msg
		}
	}
	if len(problems) > 0 {
		return event.Info{}, problems
	}
	return info, nil
}

func isFiveDigits(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type outcomeResponse struct {
	Outcome outcomeDTO `json:"outcome"`
}

type outcomeDTO struct {
	Kind      string        `json:"kind"`
	Links     *linksDTO     `json:"links,omitempty"`
	Conflicts []conflictDTO `json:"conflicts,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type linksDTO struct {
	VideoJoinURL      string `json:"video_join_url,omitempty"`
	VideoAccount      string `json:"video_account,omitempty"`
	AdvocacyManageURL string `json:"advocacy_manage_url,omitempty"`
	AdvocacyShareURL  string `json:"advocacy_share_url,omitempty"`
	CalendarURL       string `json:"calendar_url,omitempty"`
}

type conflictDTO struct {
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Start        string `json:"start"`
	End          string `json:"end"`
	VideoAccount string `json:"video_account,omitempty"`
}

func toOutcomeDTO(outcome event.PublishOutcome) outcomeDTO {
	dto := outcomeDTO{Kind: string(outcome.Kind), Error: outcome.Err}

	if outcome.Links != (event.Links{}) {
		dto.Links = &linksDTO{
			VideoJoinURL:      outcome.Links.VideoJoinURL,
			VideoAccount:      outcome.Links.VideoAccount,
			AdvocacyManageURL: outcome.Links.AdvocacyManageURL,
			AdvocacyShareURL:  outcome.Links.AdvocacyShareURL,
			CalendarURL:       outcome.Links.CalendarURL,
		}
	}

	for _, c := range outcome.Conflicts {
		dto.Conflicts = append(dto.Conflicts, conflictDTO{
			Kind:         string(c.Kind),
			Title:        c.Title,
			Start:        c.Start.UTC().Format(time.RFC3339Nano),
			End:          c.End.UTC().Format(time.RFC3339Nano),
			VideoAccount: c.VideoAccount,
		})
	}
	return dto
}
