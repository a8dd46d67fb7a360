package providers

import (
	"context"

	"github.com/zatekoja/patientportal/internal/domain/entities"
)

// ClinicAPI is the remote clinic REST service. Authenticated methods take the
// bearer token explicitly; callers obtain it from the session first.
type ClinicAPI interface {
	// Login exchanges credentials for an access token
	Login(ctx context.Context, login, password string) (string, error)

	// Logout invalidates the token server-side
	Logout(ctx context.Context, token string) error

	// ListDoctors returns the doctor roster
	ListDoctors(ctx context.Context, token string) ([]entities.Doctor, error)

	// ListVisits returns the patient's visits in server order
	ListVisits(ctx context.Context, token string) ([]entities.Visit, error)

	// GetVisit returns one visit with its recommendations
	GetVisit(ctx context.Context, token string, id int) (*entities.VisitDetail, error)

	// CreateVisit books an appointment
	CreateVisit(ctx context.Context, token string, req entities.AppointmentRequest) (*entities.BookingConfirmation, error)

	// GetProfile returns the patient's profile
	GetProfile(ctx context.Context, token string) (*entities.Profile, error)

	// UpdateProfile saves profile changes
	UpdateProfile(ctx context.Context, token string, id int, update entities.ProfileUpdate) (*entities.Profile, error)
}
