package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/zatekoja/patientportal/internal/domain/entities"
	"github.com/zatekoja/patientportal/internal/domain/providers"
	"github.com/zatekoja/patientportal/internal/infrastructure/observability"
)

// VisitItem is one display row of the visit history
type VisitItem struct {
	Visit         entities.Visit
	Expanded      bool
	Past          bool
	Missed        bool
	CanViewDetail bool
}

// VisitHistory keeps the patient's visits newest first along with the
// per-visit expand state, keyed by visit id.
type VisitHistory struct {
	tokens TokenSource
	api    providers.ClinicAPI
	clock  providers.Clock
	loc    *time.Location

	mu       sync.RWMutex
	visits   []entities.Visit
	expanded map[int]bool
}

// NewVisitHistory creates an empty history; dates are read in loc
func NewVisitHistory(tokens TokenSource, api providers.ClinicAPI, clock providers.Clock, loc *time.Location) *VisitHistory {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &VisitHistory{
		tokens:   tokens,
		api:      api,
		clock:    clock,
		loc:      loc,
		expanded: make(map[int]bool),
	}
}

// Load fetches the visits and orders them by date, newest first. Visits on
// the same date keep the server's order. Expand state is reset; on failure
// the previously loaded list stays.
func (h *VisitHistory) Load(ctx context.Context) ([]entities.Visit, error) {
	h.mu.Lock()
	h.expanded = make(map[int]bool)
	h.mu.Unlock()

	token, err := h.tokens.RequireToken(ctx)
	if err != nil {
		return h.Visits(), err
	}

	visits, err := h.api.ListVisits(ctx, token)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("Failed to load visits")
		return h.Visits(), err
	}

	sorted := h.sortByDateDesc(visits)

	h.mu.Lock()
	h.visits = sorted
	h.mu.Unlock()

	return append([]entities.Visit(nil), sorted...), nil
}

func (h *VisitHistory) sortByDateDesc(visits []entities.Visit) []entities.Visit {
	type keyed struct {
		visit entities.Visit
		date  time.Time
		ok    bool
	}

	rows := make([]keyed, len(visits))
	for i, v := range visits {
		date, err := v.CalendarDate(h.loc)
		rows[i] = keyed{visit: v, date: date, ok: err == nil}
	}

	// Unparseable dates go last.
	slices.SortStableFunc(rows, func(a, b keyed) int {
		switch {
		case a.ok && b.ok:
			return b.date.Compare(a.date)
		case a.ok:
			return -1
		case b.ok:
			return 1
		default:
			return 0
		}
	})

	out := make([]entities.Visit, len(rows))
	for i, r := range rows {
		out[i] = r.visit
	}
	return out
}

// Visits returns the loaded visits in display order
func (h *VisitHistory) Visits() []entities.Visit {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]entities.Visit(nil), h.visits...)
}

// IsPast reports whether the visit's date is before today. A visit dated
// today is not past until the day is over, so it cannot show as missed
// while the appointment may still happen.
func (h *VisitHistory) IsPast(v entities.Visit) bool {
	date, err := v.CalendarDate(h.loc)
	if err != nil {
		return false
	}
	return date.Before(dayStart(h.clock.Now().In(h.loc)))
}

// IsMissed reports a past visit that was not attended
func (h *VisitHistory) IsMissed(v entities.Visit) bool {
	return v.Visit == entities.AttendanceNotAttended && h.IsPast(v)
}

// CanViewDetail reports whether recommendations exist to be fetched
func (h *VisitHistory) CanViewDetail(v entities.Visit) bool {
	return v.Attended() && h.IsPast(v)
}

// ToggleExpanded flips the expand state of one visit and returns the new state
func (h *VisitHistory) ToggleExpanded(id int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.expanded[id] = !h.expanded[id]
	return h.expanded[id]
}

// IsExpanded reports the expand state of one visit
func (h *VisitHistory) IsExpanded(id int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.expanded[id]
}

// Items returns the display rows for the loaded visits
func (h *VisitHistory) Items() []VisitItem {
	h.mu.RLock()
	visits := append([]entities.Visit(nil), h.visits...)
	expanded := make(map[int]bool, len(h.expanded))
	for id, v := range h.expanded {
		expanded[id] = v
	}
	h.mu.RUnlock()

	items := make([]VisitItem, 0, len(visits))
	for _, v := range visits {
		past := h.IsPast(v)
		items = append(items, VisitItem{
			Visit:         v,
			Expanded:      expanded[v.ID],
			Past:          past,
			Missed:        past && v.Visit == entities.AttendanceNotAttended,
			CanViewDetail: past && v.Attended(),
		})
	}
	return items
}

// FetchDetail loads one visit with its recommendations
func (h *VisitHistory) FetchDetail(ctx context.Context, id int) (*entities.VisitDetail, error) {
	token, err := h.tokens.RequireToken(ctx)
	if err != nil {
		return nil, err
	}
	return h.api.GetVisit(ctx, token, id)
}
