package domain

import (
	"encoding/json"
	"fmt"
)

// Severity of a Problem. Values are ordered Low < Medium < High < Critical < Catastrophic.
type Severity string

const (
	SeverityLow          Severity = "Low"
	SeverityMedium       Severity = "Medium"
	SeverityHigh         Severity = "High"
	SeverityCritical     Severity = "Critical"
	SeverityCatastrophic Severity = "Catastrophic"
)

// Severities lists every severity in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical, SeverityCatastrophic}

// Rank returns the position of s in the ordering, or -1 for an unknown value.
func (s Severity) Rank() int {
	for i, v := range Severities {
		if v == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool { return s.Rank() >= 0 }

// Escalate returns the next severity, saturating at Catastrophic.
func (s Severity) Escalate() Severity {
	r := s.Rank()
	if r < 0 || r == len(Severities)-1 {
		return SeverityCatastrophic
	}
	return Severities[r+1]
}

// ParseSeverity converts a string into a Severity.
func ParseSeverity(v string) (Severity, error) {
	s := Severity(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q", v)
	}
	return s, nil
}

// UnmarshalJSON rejects values outside the enum.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
