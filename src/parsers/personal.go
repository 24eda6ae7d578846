package parsers

import (
	"regexp"
	"strings"

	"github.com/username/lifetimeline/backend/src/models"
)

// PersonalDetails is the raw extraction from a "Dati Personali" cell. All
// fields default to the empty string when absent; nothing here is an error.
type PersonalDetails struct {
	GivenName     string
	FamilyName    string
	SexText       string
	BirthDateText string
}

// The name pair is one pattern, but sex and birth date are matched
// independently: real cells carry arbitrary text between the fields.
var (
	personalNameRe  = regexp.MustCompile(`(?i)\bNome:\s*([^,\n]+?),\s*Cognome:\s*([^,\n]+)`)
	personalSexRe   = regexp.MustCompile(`(?i)\bSesso:\s*([^,\n]+)`)
	personalBirthRe = regexp.MustCompile(`(?i)\bData Di Nascita:\s*(` + datePattern + `)`)
)

// ParsePersonalDetails extracts given name, family name, sex and birth date
// text from a semi-structured personal-data cell.
func ParsePersonalDetails(text string) PersonalDetails {
	var details PersonalDetails
	if m := personalNameRe.FindStringSubmatch(text); m != nil {
		details.GivenName = strings.TrimSpace(m[1])
		details.FamilyName = strings.TrimSpace(m[2])
	}
	if m := personalSexRe.FindStringSubmatch(text); m != nil {
		details.SexText = strings.TrimSpace(m[1])
	}
	if m := personalBirthRe.FindStringSubmatch(text); m != nil {
		details.BirthDateText = strings.TrimSpace(m[1])
	}
	return details
}

// NormalizeSex maps a free-text sex value onto the normalized enum using the
// prefix conventions of the survey ("Maschio", "M", "Uomo", "Donna", ...).
func NormalizeSex(raw string) models.Sex {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return models.SexUnknown
	case strings.HasPrefix(s, "m") || strings.HasPrefix(s, "uomo"):
		return models.SexMale
	case strings.HasPrefix(s, "f") || strings.HasPrefix(s, "donna"):
		return models.SexFemale
	case strings.HasPrefix(s, "altro"):
		return models.SexOther
	default:
		return models.SexUnknown
	}
}
