package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BasicInfo is the candidate record created before any verification upload
type BasicInfo struct {
	Name        string `json:"name" yaml:"name"`
	Email       string `json:"email" yaml:"email"`
	Phone       string `json:"phone" yaml:"phone"`
	DateOfBirth string `json:"date_of_birth" yaml:"date_of_birth"`
	Position    string `json:"position" yaml:"position"`
	Experience  string `json:"experience" yaml:"experience"`
}

// ApplicantID accepts both numeric and string identifiers
type ApplicantID string

// UnmarshalJSON implements json.Unmarshaler
func (id *ApplicantID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ApplicantID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("applicant id: %w", err)
	}
	*id = ApplicantID(n.String())
	return nil
}

// Applicant is the record returned by the backend after creation
type Applicant struct {
	ID ApplicantID `json:"id"`
	BasicInfo
}
