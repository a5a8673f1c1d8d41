package models

import validation "github.com/go-ozzo/ozzo-validation/v4"

// Gender drives reference-table selection.
type Gender string

const (
	GenderBoy   Gender = "BOY"
	GenderGirl  Gender = "GIRL"
	GenderOther Gender = "OTHER"
)

// Profile is the single child profile of a session.
type Profile struct {
	Name         string `json:"name"`
	Gender       Gender `json:"gender"`
	BirthDate    Date   `json:"birth_date"`
	PhotoURL     string `json:"photo_url,omitempty"`
	HasCharacter bool   `json:"has_character"`
}

// Validate validates the profile.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Gender, validation.Required, validation.In(GenderBoy, GenderGirl, GenderOther)),
		validation.Field(&p.BirthDate, validation.By(func(any) error {
			if p.BirthDate.IsZero() {
				return validation.ErrRequired
			}
			return nil
		})),
	)
}

// ProfilePatch is a shallow partial update; nil fields are left untouched.
type ProfilePatch struct {
	Name         *string `json:"name,omitempty"`
	Gender       *Gender `json:"gender,omitempty"`
	BirthDate    *Date   `json:"birth_date,omitempty"`
	PhotoURL     *string `json:"photo_url,omitempty"`
	HasCharacter *bool   `json:"has_character,omitempty"`
}

// Apply returns p with the non-nil fields of patch applied.
func (patch ProfilePatch) Apply(p Profile) Profile {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.BirthDate != nil {
		p.BirthDate = *patch.BirthDate
	}
	if patch.PhotoURL != nil {
		p.PhotoURL = *patch.PhotoURL
	}
	if patch.HasCharacter != nil {
		p.HasCharacter = *patch.HasCharacter
	}
	return p
}
