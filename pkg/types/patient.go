package types

// PatientRecord is one patient row recovered from the patient listing.
// Name and ID are always set; every other field is filled only when the row
// text carries it.
type PatientRecord struct {
	Name               string `json:"name"`
	ID                 string `json:"id"`
	DOB                string `json:"dob,omitempty"`
	Gender             string `json:"gender,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Email              string `json:"email,omitempty"`
	PrimaryInsurance   string `json:"primaryInsurance,omitempty"`
	SecondaryInsurance string `json:"secondaryInsurance,omitempty"`
	PCP                string `json:"pcp,omitempty"`
	LastAppointment    string `json:"lastAppointment,omitempty"`
}

// Credentials holds the sign-in identity for the clinic application.
type Credentials struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"-"`
}

// IsZero reports whether no credentials are configured.
func (c Credentials) IsZero() bool {
	return c.Email == "" && c.Password == ""
}
