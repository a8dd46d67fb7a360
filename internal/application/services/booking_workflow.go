package services

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/patientportal/internal/domain/entities"
	"github.com/zatekoja/patientportal/internal/domain/providers"
	"github.com/zatekoja/patientportal/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
)

// DefaultMinuteInterval is the time picker granularity
const DefaultMinuteInterval = 30

// Messages shown for rejected booking input
const (
	MsgWeekendDate   = "Appointments are only available Monday to Friday. Please pick a weekday."
	MsgPastDate      = "Please pick today or a later date."
	MsgNoDoctor      = "Please select a doctor first."
	MsgUnknownDoctor = "The selected doctor is not available."
)

// TokenSource hands out the current access token or fails with UNAUTHENTICATED
type TokenSource interface {
	RequireToken(ctx context.Context) (string, error)
}

// BookingStage is the step the booking workflow is at
type BookingStage int

const (
	StageSelectingDoctor BookingStage = iota
	StageSelectingDate
	StageSelectingTime
	StageReadyToSubmit
)

func (s BookingStage) String() string {
	switch s {
	case StageSelectingDoctor:
		return "selecting_doctor"
	case StageSelectingDate:
		return "selecting_date"
	case StageSelectingTime:
		return "selecting_time"
	case StageReadyToSubmit:
		return "ready_to_submit"
	default:
		return "unknown"
	}
}

// BookingOptions tunes a BookingWorkflow
type BookingOptions struct {
	MinuteInterval int
	Location       *time.Location
}

// BookingWorkflow assembles one appointment at a time: doctor, then date,
// then time, then submission. A successful submission clears the doctor and
// keeps the date and time as defaults for the next booking.
type BookingWorkflow struct {
	tokens     TokenSource
	api        providers.ClinicAPI
	datePicker providers.DatePicker
	timePicker providers.TimePicker
	clock      providers.Clock
	interval   int

	mu            sync.Mutex
	doctors       []entities.Doctor
	rosterLoaded  bool
	draft         entities.AppointmentDraft
	dateConfirmed bool
	timeConfirmed bool
	submitting    bool
	closed        bool
}

// NewBookingWorkflow creates a workflow whose draft date and time default to now
func NewBookingWorkflow(
	tokens TokenSource,
	api providers.ClinicAPI,
	datePicker providers.DatePicker,
	timePicker providers.TimePicker,
	clock providers.Clock,
	opts BookingOptions,
) *BookingWorkflow {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	if opts.MinuteInterval <= 0 {
		opts.MinuteInterval = DefaultMinuteInterval
	}

	now := clock.Now()
	if opts.Location != nil {
		now = now.In(opts.Location)
	}

	return &BookingWorkflow{
		tokens:     tokens,
		api:        api,
		datePicker: datePicker,
		timePicker: timePicker,
		clock:      clock,
		interval:   opts.MinuteInterval,
		draft: entities.AppointmentDraft{
			SelectedDate: now,
			SelectedTime: now,
		},
	}
}

// Start loads the doctor roster. It fetches only once per workflow; a
// failed fetch leaves the roster empty and may be retried.
func (w *BookingWorkflow) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errClosed
	}
	if w.rosterLoaded {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	token, err := w.tokens.RequireToken(ctx)
	if err != nil {
		return err
	}

	doctors, err := w.api.ListDoctors(ctx, token)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("Failed to load doctors")
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.doctors = doctors
	w.rosterLoaded = true
	return nil
}

// Doctors returns the loaded roster
func (w *BookingWorkflow) Doctors() []entities.Doctor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]entities.Doctor(nil), w.doctors...)
}

// Stage reports where the workflow is
func (w *BookingWorkflow) Stage() BookingStage {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case !w.draft.HasDoctor():
		return StageSelectingDoctor
	case !w.dateConfirmed:
		return StageSelectingDate
	case !w.timeConfirmed:
		return StageSelectingTime
	default:
		return StageReadyToSubmit
	}
}

// SelectDoctor chooses a doctor from the roster
func (w *BookingWorkflow) SelectDoctor(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errClosed
	}
	for i := range w.doctors {
		if w.doctors[i].ID == id {
			doctor := w.doctors[i]
			w.draft.SelectedDoctor = &doctor
			return nil
		}
	}
	return apperrors.NewValidationError(MsgUnknownDoctor)
}

// ClearDoctor goes back to doctor selection. The picked date and time stay
// as defaults but have to be confirmed again.
func (w *BookingWorkflow) ClearDoctor() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetSelection()
}

// PickDate opens the date picker with today as the lower bound. A weekend
// or past pick is rejected with a VALIDATION error and the draft keeps its
// previous date. A closed picker changes nothing and returns false.
func (w *BookingWorkflow) PickDate(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false, errClosed
	}
	initial := w.draft.SelectedDate
	w.mu.Unlock()

	now := w.clock.Now().In(initial.Location())
	picked, ok, err := w.datePicker.RequestDate(ctx, now, initial)
	if err != nil || !ok {
		return false, err
	}

	if isWeekend(picked) {
		return false, apperrors.NewValidationError(MsgWeekendDate)
	}
	if dayStart(picked).Before(dayStart(now.In(picked.Location()))) {
		return false, apperrors.NewValidationError(MsgPastDate)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, nil
	}
	w.draft.SelectedDate = picked
	w.dateConfirmed = true
	return true, nil
}

// PickTime opens the time picker; any confirmed time is accepted
func (w *BookingWorkflow) PickTime(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false, errClosed
	}
	initial := w.draft.SelectedTime
	w.mu.Unlock()

	picked, ok, err := w.timePicker.RequestTime(ctx, initial, w.interval)
	if err != nil || !ok {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, nil
	}
	w.draft.SelectedTime = picked
	w.timeConfirmed = true
	return true, nil
}

// Draft returns a copy of the current draft
func (w *BookingWorkflow) Draft() entities.AppointmentDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return copyDraft(w.draft)
}

// Payload builds the request that Submit would send
func (w *BookingWorkflow) Payload() (entities.AppointmentRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return payloadFor(w.draft)
}

// Submit sends the draft. Without a doctor or with a weekend date it fails
// with VALIDATION and makes no request. On failure the draft is left untouched.
func (w *BookingWorkflow) Submit(ctx context.Context) (*entities.BookingConfirmation, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errClosed
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, apperrors.NewValidationError("A booking is already being submitted.")
	}
	payload, err := payloadFor(w.draft)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	token, err := w.tokens.RequireToken(ctx)
	if err != nil {
		return nil, err
	}

	confirmation, err := w.api.CreateVisit(ctx, token, payload)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Int("doctor_id", payload.DoctorID).
			Str("date", payload.Date).
			Str("appointment_time", payload.Time).
			Msg("Booking failed")
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Int("doctor_id", payload.DoctorID).
		Str("date", payload.Date).
		Str("appointment_time", payload.Time).
		Msg("Appointment booked")

	w.mu.Lock()
	if !w.closed {
		w.resetSelection()
	}
	w.mu.Unlock()
	return confirmation, nil
}

// Close ends the workflow; results of calls still in flight are dropped
func (w *BookingWorkflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// resetSelection starts the next booking from doctor selection. Callers
// hold w.mu.
func (w *BookingWorkflow) resetSelection() {
	w.draft.SelectedDoctor = nil
	w.dateConfirmed = false
	w.timeConfirmed = false
}

var errClosed = apperrors.NewInternalError("booking workflow is closed", nil)

func payloadFor(draft entities.AppointmentDraft) (entities.AppointmentRequest, error) {
	if !draft.HasDoctor() {
		return entities.AppointmentRequest{}, apperrors.NewValidationError(MsgNoDoctor)
	}
	if isWeekend(draft.SelectedDate) {
		return entities.AppointmentRequest{}, apperrors.NewValidationError(MsgWeekendDate)
	}
	return entities.NewAppointmentRequest(draft.SelectedDoctor.ID, draft.SelectedDate, draft.SelectedTime), nil
}

func copyDraft(d entities.AppointmentDraft) entities.AppointmentDraft {
	if d.SelectedDoctor != nil {
		doctor := *d.SelectedDoctor
		d.SelectedDoctor = &doctor
	}
	return d
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
