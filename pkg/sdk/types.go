package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// User is an account as returned by the users endpoints. The session
// identity is a User.
type User struct {
	ID          int64      `json:"id" mapstructure:"id"`
	FullName    string     `json:"full_name" mapstructure:"full_name"`
	Email       string     `json:"email" mapstructure:"email"`
	PhoneNumber string     `json:"phone_number" mapstructure:"phone_number"`
	Role        Role       `json:"role" mapstructure:"role"`
	CreatedAt   *Timestamp `json:"created_at,omitempty" mapstructure:"-"`
}

// NewUser is the payload for POST /users/register.
type NewUser struct {
	Email       string `json:"email" validate:"required,email"`
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        Role   `json:"role,omitempty" validate:"omitempty,oneof=admin doctor nurse"`
}

// UpdateUser is the payload for PUT /users/{id}. Nil fields are left unchanged.
type UpdateUser struct {
	FullName    *string `json:"full_name,omitempty" validate:"omitempty,min=1"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,min=1"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// Gender values accepted by the patients endpoints.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Patient is a patient record.
type Patient struct {
	ID          int64  `json:"id" mapstructure:"id"`
	FullName    string `json:"full_name" mapstructure:"full_name"`
	BirthDate   string `json:"birth_date" mapstructure:"birth_date"`
	PhoneNumber string `json:"phone_number,omitempty" mapstructure:"phone_number"`
	Gender      string `json:"gender,omitempty" mapstructure:"gender"`
	CreatedBy   *int64 `json:"created_by,omitempty" mapstructure:"-"`
}

// NewPatient is the payload for POST /patients.
type NewPatient struct {
	FullName    string `json:"full_name" validate:"required"`
	BirthDate   string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=male female"`
	CreatedBy   *int64 `json:"created_by,omitempty"`
}

// UpdatePatient is the payload for PUT /patients/{id}. Nil fields are left unchanged.
type UpdatePatient struct {
	FullName    *string `json:"full_name,omitempty" validate:"omitempty,min=1"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,min=1"`
	BirthDate   *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Apply returns p with the non-nil fields of u applied.
func (u UpdatePatient) Apply(p Patient) Patient {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = *u.PhoneNumber
	}
	if u.BirthDate != nil {
		p.BirthDate = *u.BirthDate
	}
	return p
}

// Apply returns usr with the non-nil profile fields of u applied.
func (u UpdateUser) Apply(usr User) User {
	if u.FullName != nil {
		usr.FullName = *u.FullName
	}
	if u.PhoneNumber != nil {
		usr.PhoneNumber = *u.PhoneNumber
	}
	return usr
}

// Disease is an entry in the disease catalogue used by the classifier.
type Disease struct {
	ID          int64      `json:"id" mapstructure:"id"`
	Name        string     `json:"name" mapstructure:"name"`
	Description string     `json:"description" mapstructure:"description"`
	CreatedBy   *int64     `json:"created_by,omitempty" mapstructure:"-"`
	CreatedAt   *Timestamp `json:"created_at,omitempty" mapstructure:"-"`
}

// NewDisease is the payload for POST /diseases.
type NewDisease struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required,notblank,max=15000"`
}

// PatientDisease links a disease to a patient.
type PatientDisease struct {
	ID         int64     `json:"id"`
	PatientID  int64     `json:"patient_id"`
	DiseaseID  int64     `json:"disease_id"`
	DoctorID   int64     `json:"doctor_id"`
	AssignedAt Timestamp `json:"assigned_at"`
}

// PatientDiseaseDetail is a link as listed by /patient-diseases/details/by-patient.
type PatientDiseaseDetail struct {
	ID             int64     `json:"id" mapstructure:"id"`
	DiseaseName    string    `json:"disease_name" mapstructure:"disease_name"`
	AssignedByName string    `json:"assigned_by_name" mapstructure:"assigned_by_name"`
	AssignedAt     Timestamp `json:"assigned_at" mapstructure:"-"`
}

// AssignDiseaseInput is the payload for POST /patient-diseases/assign.
type AssignDiseaseInput struct {
	PatientID int64 `json:"patient_id" validate:"required,gt=0"`
	DiseaseID int64 `json:"disease_id" validate:"required,gt=0"`
}

// ClassificationResult is one ranked disease for a classified image.
type ClassificationResult struct {
	DiseaseName string  `json:"disease_name"`
	Score       float64 `json:"score"`
	BestPhrase  string  `json:"best_phrase"`
}

// AnalysisResult is the classifier response.
type AnalysisResult struct {
	Results []ClassificationResult `json:"results"`
}

// HistoryItem is a stored classification.
type HistoryItem struct {
	ID          int64     `json:"id" mapstructure:"id"`
	DiseaseName string    `json:"disease_name" mapstructure:"disease_name"`
	Score       float64   `json:"score" mapstructure:"score"`
	ImagePath   string    `json:"image_path" mapstructure:"image_path"`
	CreatedAt   Timestamp `json:"created_at" mapstructure:"-"`
	UserID      int64     `json:"user_id" mapstructure:"user_id"`
}

// LoginRequest is the payload for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body returned by POST /users/login. User is only
// present when the backend chooses to return the full identity.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

// Timestamp accepts RFC 3339 as well as the naive ISO-8601 datetimes the
// backend emits for columns without a zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
