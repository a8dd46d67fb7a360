package entities

import (
	"time"
)

// AttendanceFlag is the server's visit marker: 1 attended, 0 not (yet) attended
type AttendanceFlag int

const (
	AttendanceNotAttended AttendanceFlag = 0
	AttendanceAttended    AttendanceFlag = 1
)

// Visit is one entry of the patient's visit history
type Visit struct {
	ID            int            `json:"id"`
	Date          string         `json:"date"`
	Time          string         `json:"time"`
	NameDoctor    string         `json:"name_doctor"`
	SurnameDoctor string         `json:"surname_doctor"`
	Visit         AttendanceFlag `json:"visit"`
}

// Attended reports whether the visit is marked as attended
func (v Visit) Attended() bool {
	return v.Visit == AttendanceAttended
}

// DoctorName returns "Surname Name"
func (v Visit) DoctorName() string {
	return v.SurnameDoctor + " " + v.NameDoctor
}

// CalendarDate parses Date as local midnight in loc
func (v Visit) CalendarDate(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, v.Date, loc)
}

// Recommendation is a doctor's note attached to an attended visit
type Recommendation struct {
	Recommendation string `json:"recomendation"`
}

// VisitDetail is the full record of one visit
type VisitDetail struct {
	ID              int              `json:"id"`
	Date            string           `json:"date"`
	Time            string           `json:"time"`
	NameDoctor      string           `json:"name_doctor"`
	SurnameDoctor   string           `json:"surname_doctor"`
	Recommendations []Recommendation `json:"visits_recommendations"`
}
