package model

import "strings"

// AccountabilityPartner is the configured contact who receives a message
// when a habit is completed. Enabled gates every send; the freshest stored
// value is consulted at dispatch time, not a cached copy.
type AccountabilityPartner struct {
	Name        string `json:"name" db:"name"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number"`
	Enabled     bool   `json:"enabled" db:"enabled"`
}

// PhoneDigits strips everything but digits from the partner's phone number.
// No country code is added; the number is used as entered.
func (p AccountabilityPartner) PhoneDigits() string {
	var b strings.Builder
	for _, r := range p.PhoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether the phone number has between 10 and 15 digits.
func (p AccountabilityPartner) ValidPhone() bool {
	n := len(p.PhoneDigits())
	return n >= 10 && n <= 15
}
