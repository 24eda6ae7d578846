package models

import "time"

// Event is one normalized life event extracted from a survey row.
// Events are immutable once built by the table loader.
type Event struct {
	ID            int64     `json:"id,omitempty"`
	PersonName    string    `json:"person_name"`    // derived "given family" of the submitting person
	Title         string    `json:"title"`
	Category      string    `json:"category"`       // bisogno | progetto | desiderio, or verbatim pass-through
	DateText      string    `json:"date_text"`      // original textual date, preserved for display
	Date          time.Time `json:"date"`           // parsed calendar date
	DependentName string    `json:"dependent_name"` // empty when the event belongs to the head of household
	IsDependent   bool      `json:"is_dependent"`
	Cost          string    `json:"cost,omitempty"` // raw text, possibly currency formatted
}

// Sex is the normalized sex of a person.
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexOther   Sex = "other"
	SexUnknown Sex = "unknown"
)

// PersonInfo is the registry entry for one submitting person.
type PersonInfo struct {
	GivenName  string     `json:"given_name"`
	FamilyName string     `json:"family_name"`
	SexText    string     `json:"sex_text"` // free text as submitted
	Sex        Sex        `json:"sex"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
}

// FullName derives the registry key for the person.
func (p PersonInfo) FullName() string {
	name := p.GivenName
	if p.FamilyName != "" {
		if name != "" {
			name += " "
		}
		name += p.FamilyName
	}
	return name
}

// PricePoint is one observation of a date-indexed price series, as produced
// by the market data service and consumed by the forecast engine.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Dataset describes one uploaded and parsed survey export.
type Dataset struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	EventCount  int       `json:"event_count"`
	PersonCount int       `json:"person_count"`
}
