package clinicapi

import (
	"github.com/goccy/go-json"

	"github.com/zatekoja/patientportal/internal/domain/entities"
)

// envelope wraps every response body
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Pointer fields distinguish an absent field from a zero value; absent
// required fields fail validation.

type loginData struct {
	AccessToken *string `json:"access_token" validate:"required"`
}

type doctorDTO struct {
	ID             *int    `json:"id" validate:"required"`
	Name           *string `json:"name" validate:"required"`
	Surname        *string `json:"surname" validate:"required"`
	Specialization *string `json:"specialization" validate:"required"`
}

func (d doctorDTO) toEntity() entities.Doctor {
	return entities.Doctor{
		ID:             *d.ID,
		Name:           *d.Name,
		Surname:        *d.Surname,
		Specialization: *d.Specialization,
	}
}

type visitDTO struct {
	ID            *int    `json:"id" validate:"required"`
	Date          *string `json:"date" validate:"required"`
	Time          *string `json:"time" validate:"required"`
	NameDoctor    *string `json:"name_doctor" validate:"required"`
	SurnameDoctor *string `json:"surname_doctor" validate:"required"`
	Visit         *int    `json:"visit" validate:"required,oneof=0 1"`
}

func (v visitDTO) toEntity() entities.Visit {
	return entities.Visit{
		ID:            *v.ID,
		Date:          *v.Date,
		Time:          *v.Time,
		NameDoctor:    *v.NameDoctor,
		SurnameDoctor: *v.SurnameDoctor,
		Visit:         entities.AttendanceFlag(*v.Visit),
	}
}

type recommendationDTO struct {
	Recommendation *string `json:"recomendation" validate:"required"`
}

type visitDetailDTO struct {
	ID              *int                `json:"id" validate:"required"`
	Date            *string             `json:"date" validate:"required"`
	Time            *string             `json:"time" validate:"required"`
	NameDoctor      *string             `json:"name_doctor" validate:"required"`
	SurnameDoctor   *string             `json:"surname_doctor" validate:"required"`
	Recommendations []recommendationDTO `json:"visits_recommendations" validate:"required,dive"`
}

func (v visitDetailDTO) toEntity() entities.VisitDetail {
	recs := make([]entities.Recommendation, 0, len(v.Recommendations))
	for _, r := range v.Recommendations {
		recs = append(recs, entities.Recommendation{Recommendation: *r.Recommendation})
	}
	return entities.VisitDetail{
		ID:              *v.ID,
		Date:            *v.Date,
		Time:            *v.Time,
		NameDoctor:      *v.NameDoctor,
		SurnameDoctor:   *v.SurnameDoctor,
		Recommendations: recs,
	}
}

type confirmationDTO struct {
	Message *string `json:"message" validate:"required"`
}

type profileDTO struct {
	ID        *int    `json:"id" validate:"required"`
	Name      *string `json:"name" validate:"required"`
	Surname   *string `json:"surname" validate:"required"`
	Address   string  `json:"address"`
	Passport  string  `json:"passport"`
	Telephone string  `json:"telephone"`
	Login     string  `json:"login"`
}

func (p profileDTO) toEntity() entities.Profile {
	return entities.Profile{
		ID:        *p.ID,
		Name:      *p.Name,
		Surname:   *p.Surname,
		Address:   p.Address,
		Passport:  p.Passport,
		Telephone: p.Telephone,
		Login:     p.Login,
	}
}
