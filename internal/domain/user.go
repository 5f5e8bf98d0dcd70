package domain

import "time"

// User is the attendee profile used to prefill solo bookings and to resolve
// group invitations.
type User struct {
	ID          int64     `json:"user_id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	JobTitle    string    `json:"job_title,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileComplete reports whether the profile carries everything a solo
// enrollment needs prefilled.
func (u *User) ProfileComplete() bool {
	return u.FullName != "" && u.PhoneNumber != ""
}

// MissingProfileFields lists the profile fields a solo enrollment still needs.
func (u *User) MissingProfileFields() []string {
	var missing []string
	if u.FullName == "" {
		missing = append(missing, "full_name")
	}
	if u.PhoneNumber == "" {
		missing = append(missing, "phone_number")
	}
	return missing
}
