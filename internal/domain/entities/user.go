package entities

// Profile represents the logged-in patient
type Profile struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Address   string `json:"address"`
	Passport  string `json:"passport"`
	Telephone string `json:"telephone"`
	Login     string `json:"login"`
}

// ProfileUpdate is the editable part of a profile. Password is sent only
// when the patient sets a new one.
type ProfileUpdate struct {
	Name      string `json:"name" validate:"required"`
	Surname   string `json:"surname" validate:"required"`
	Address   string `json:"address"`
	Passport  string `json:"passport"`
	Telephone string `json:"telephone"`
	Login     string `json:"login" validate:"required"`
	Password  string `json:"password,omitempty"`
}

// UpdateFrom returns an update carrying p's current values
func (p Profile) UpdateFrom() ProfileUpdate {
	return ProfileUpdate{
		Name:      p.Name,
		Surname:   p.Surname,
		Address:   p.Address,
		Passport:  p.Passport,
		Telephone: p.Telephone,
		Login:     p.Login,
	}
}
