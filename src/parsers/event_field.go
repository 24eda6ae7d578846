package parsers

import (
	"regexp"
	"strings"

	"github.com/username/lifetimeline/backend/src/logger"
)

// SchemaVersion tags which line pattern produced an event entry. The survey
// tool changed its export format twice, so a single cell can mix vintages.
type SchemaVersion int

const (
	SchemaUnknown SchemaVersion = iota
	SchemaV1                    // Titolo / Categoria / Data
	SchemaV2                    // Titolo Evento / Categoria / Data Evento / Nome del Familiare
	SchemaV3                    // adds A Carico? / Nome del Familiare A Carico / Costo
	SchemaFlexible              // generic key:value fallback
)

// ParsedEvent is the raw extraction from one event line, before date
// resolution and person attribution happen in the table loader.
type ParsedEvent struct {
	Title         string
	Category      string
	DateText      string
	DependentName string
	IsDependent   bool
	Cost          string
	Schema        SchemaVersion
}

// lineOutcome makes the silent-discard policy explicit: a line either parses
// or is skipped with a reason that tests and debug logs can inspect.
type lineOutcome struct {
	ok    bool
	event ParsedEvent
	skip  string
}

const datePattern = `[0-9]{1,4}[\/-][0-9]{1,2}[\/-][0-9]{2,4}`

// Strict schemas are anchored to the whole line; anything that deviates from
// the known field order falls through to the flexible key:value matcher.
var (
	eventV3Re = regexp.MustCompile(`(?i)^\s*Titolo Evento:\s*([^,\n]+?),\s*Categoria:\s*([^,\n]+?),\s*Data Evento:\s*(` + datePattern + `)\s*,\s*A Carico\?:\s*([^,\n]*?),\s*Nome del Familiare A Carico:\s*([^,\n]*?)(?:,\s*Costo:\s*([^,\n]*?))?\s*$`)
	eventV2Re = regexp.MustCompile(`(?i)^\s*Titolo Evento:\s*([^,\n]+?),\s*Categoria:\s*([^,\n]+?),\s*Data Evento:\s*(` + datePattern + `)(?:\s*,\s*Nome del Familiare:\s*([^,\n]*?))?\s*$`)
	eventV1Re = regexp.MustCompile(`(?i)^\s*Titolo:\s*([^,\n]+?),\s*Categoria:\s*([^,\n]+?),\s*Data:\s*(` + datePattern + `)\s*$`)

	dateTokenRe = regexp.MustCompile(`^` + datePattern + `$`)
)

// legacyCategories maps the vocabulary of older exports onto the current
// three-value one (bisogno, progetto, desiderio).
var legacyCategories = map[string]string{
	"famiglia":   "progetto",
	"acquisti":   "bisogno",
	"obiettivi":  "progetto",
	"lavoro":     "progetto",
	"studio":     "progetto",
	"salute":     "bisogno",
	"finanze":    "bisogno",
	"sogni":      "desiderio",
	"carriera":   "progetto",
	"istruzione": "progetto",
}

// NormalizeCategory lower-cases and trims a category, translating legacy
// values. Unknown categories pass through unchanged apart from the casing.
func NormalizeCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if mapped, ok := legacyCategories[c]; ok {
		return mapped
	}
	return c
}

// foldDiacritics is enough for the Italian yes-values ("Sì", "SÌ") seen in
// real exports; full Unicode normalization is not needed for this field.
var foldDiacritics = strings.NewReplacer(
	"à", "a", "è", "e", "é", "e", "ì", "i", "í", "i",
	"ò", "o", "ó", "o", "ù", "u", "ú", "u",
)

var dependentYesValues = map[string]bool{
	"si": true, "yes": true, "y": true, "true": true, "1": true,
}

func isYes(raw string) bool {
	v := foldDiacritics.Replace(strings.ToLower(strings.TrimSpace(raw)))
	return dependentYesValues[v]
}

// ParseEventField extracts every recognizable event entry from a free-text
// cell, one entry per line. Lines matching none of the known schemas emit
// nothing. defaultDependent forces the dependent flag on every entry of the
// cell (used for the dependents-at-charge column) without inventing a
// dependent name.
func ParseEventField(text string, defaultDependent bool) []ParsedEvent {
	var events []ParsedEvent
	if strings.TrimSpace(text) == "" {
		return events
	}
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		outcome := parseEventLine(line, defaultDependent)
		if !outcome.ok {
			if logger.L != nil {
				logger.L.Debug("Skipping unrecognized event line", "reason", outcome.skip, "line", line)
			}
			continue
		}
		events = append(events, outcome.event)
	}
	return events
}

// parseEventLine tries the strict schemas most-specific-first, then the
// flexible key:value fallback.
func parseEventLine(line string, defaultDependent bool) lineOutcome {
	if m := eventV3Re.FindStringSubmatch(line); m != nil {
		yes := isYes(m[4])
		ev := ParsedEvent{
			Title:       strings.TrimSpace(m[1]),
			Category:    NormalizeCategory(m[2]),
			DateText:    strings.TrimSpace(m[3]),
			IsDependent: yes || defaultDependent,
			Cost:        strings.TrimSpace(m[6]),
			Schema:      SchemaV3,
		}
		if yes {
			ev.DependentName = strings.TrimSpace(m[5])
		}
		return lineOutcome{ok: true, event: ev}
	}

	if m := eventV2Re.FindStringSubmatch(line); m != nil {
		dependent := strings.TrimSpace(m[4])
		return lineOutcome{ok: true, event: ParsedEvent{
			Title:         strings.TrimSpace(m[1]),
			Category:      NormalizeCategory(m[2]),
			DateText:      strings.TrimSpace(m[3]),
			DependentName: dependent,
			IsDependent:   dependent != "" || defaultDependent,
			Schema:        SchemaV2,
		}}
	}

	if m := eventV1Re.FindStringSubmatch(line); m != nil {
		return lineOutcome{ok: true, event: ParsedEvent{
			Title:       strings.TrimSpace(m[1]),
			Category:    NormalizeCategory(m[2]),
			DateText:    strings.TrimSpace(m[3]),
			IsDependent: defaultDependent,
			Schema:      SchemaV1,
		}}
	}

	return parseFlexibleLine(line, defaultDependent)
}

// eventKeySynonyms maps normalized keys of the flexible matcher onto
// canonical field names.
var eventKeySynonyms = map[string]string{
	"titolo evento":               "title",
	"titolo":                      "title",
	"categoria":                   "category",
	"data evento":                 "date",
	"data":                        "date",
	"a carico?":                   "dependent_flag",
	"a carico":                    "dependent_flag",
	"nome del familiare a carico": "dependent_name",
	"nome del familiare":          "dependent_name",
	"costo":                       "cost",
}

// parseFlexibleLine handles entries whose fields arrive in a non-standard
// order, splitting on commas into key:value pairs.
func parseFlexibleLine(line string, defaultDependent bool) lineOutcome {
	fields := make(map[string]string)
	for _, part := range strings.Split(line, ",") {
		key, value, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(key))
		canonical, known := eventKeySynonyms[normalized]
		if !known {
			continue
		}
		if _, seen := fields[canonical]; !seen {
			fields[canonical] = strings.TrimSpace(value)
		}
	}

	title := fields["title"]
	dateText := fields["date"]
	switch {
	case title == "":
		return lineOutcome{skip: "no title field"}
	case fields["category"] == "":
		return lineOutcome{skip: "no category field"}
	case !dateTokenRe.MatchString(dateText):
		return lineOutcome{skip: "no date field"}
	}

	yes := isYes(fields["dependent_flag"])
	dependent := ""
	if yes || fields["dependent_flag"] == "" {
		// A declared "No" overrides any stray dependent-name value.
		dependent = fields["dependent_name"]
	}

	return lineOutcome{ok: true, event: ParsedEvent{
		Title:         title,
		Category:      NormalizeCategory(fields["category"]),
		DateText:      dateText,
		DependentName: dependent,
		IsDependent:   yes || dependent != "" || defaultDependent,
		Cost:          fields["cost"],
		Schema:        SchemaFlexible,
	}}
}
