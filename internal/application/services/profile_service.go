package services

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/zatekoja/patientportal/internal/domain/entities"
	"github.com/zatekoja/patientportal/internal/domain/providers"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
)

// ProfileService reads and edits the patient's own profile
type ProfileService struct {
	tokens   TokenSource
	api      providers.ClinicAPI
	validate *validator.Validate
}

// NewProfileService creates a new profile service
func NewProfileService(tokens TokenSource, api providers.ClinicAPI) *ProfileService {
	return &ProfileService{
		tokens:   tokens,
		api:      api,
		validate: validator.New(),
	}
}

// Get fetches the profile
func (s *ProfileService) Get(ctx context.Context) (*entities.Profile, error) {
	token, err := s.tokens.RequireToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.GetProfile(ctx, token)
}

// Update saves the profile with the given id
func (s *ProfileService) Update(ctx context.Context, id int, update entities.ProfileUpdate) (*entities.Profile, error) {
	if err := s.validate.Struct(update); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, apperrors.NewValidationError(fieldMessage(fieldErrs[0]))
		}
		return nil, apperrors.NewValidationError("Invalid profile.")
	}

	token, err := s.tokens.RequireToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.UpdateProfile(ctx, token, id, update)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required."
	default:
		return fe.Field() + " is invalid."
	}
}
