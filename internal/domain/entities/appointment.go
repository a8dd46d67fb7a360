package entities

import (
	"time"
)

// Wire layouts for the appointment payload
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Doctor is a read-only roster entry
type Doctor struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Specialization string `json:"specialization"`
}

// FullName returns "Surname Name" as the clinic lists doctors
func (d Doctor) FullName() string {
	return d.Surname + " " + d.Name
}

// AppointmentDraft is the not-yet-submitted appointment assembled by the
// booking workflow. SelectedDate and SelectedTime default to the moment the
// draft was created.
type AppointmentDraft struct {
	SelectedDoctor *Doctor
	SelectedDate   time.Time
	SelectedTime   time.Time
}

// HasDoctor reports whether a doctor has been chosen
func (d AppointmentDraft) HasDoctor() bool {
	return d.SelectedDoctor != nil
}

// AppointmentRequest is the payload sent to create a visit
type AppointmentRequest struct {
	DoctorID int    `json:"id_medic"`
	Date     string `json:"datetomedic"`
	Time     string `json:"timetomedic"`
}

// NewAppointmentRequest formats the draft fields as 24-hour, zero-padded values.
func NewAppointmentRequest(doctorID int, date, clock time.Time) AppointmentRequest {
	return AppointmentRequest{
		DoctorID: doctorID,
		Date:     date.Format(DateLayout),
		Time:     clock.Format(TimeLayout),
	}
}

// BookingConfirmation carries the server's confirmation text
type BookingConfirmation struct {
	Message string `json:"message"`
}
