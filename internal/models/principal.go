package models

type Principal struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
}

// Label is the email when present, otherwise the subject.
func (p Principal) Label() string {
	if p.Email != "" {
		return p.Email
	}
	return p.Subject
}
