package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/models"
)

// SchemaError reports that the uploaded table is missing columns the loader
// cannot work without. It is fatal to the load call; there is no retry.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("event table is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Canonical column roles, resolved from the header via synonym matching.
const (
	colSubmission      = "submission"
	colEvents          = "events"
	colDependentEvents = "dependent_events"
	colPersonalData    = "personal_data"
	colGivenName       = "given_name"
	colFamilyName      = "family_name"
)

// columnSynonyms covers the naming drift observed across export-tool
// versions. Matching happens on normalized names (see normalizeColumnName).
var columnSynonyms = map[string]string{
	"submission date":           colSubmission,
	"data invio":                colSubmission,
	"eventi":                    colEvents,
	"eventi personali":          colEvents,
	"eventi familiari a carico": colDependentEvents,
	"eventi familiari":          colDependentEvents,
	"dati personali":            colPersonalData,
	"nome":                      colGivenName,
	"cognome":                   colFamilyName,
}

// normalizeColumnName strips the byte-order mark, turns non-breaking spaces
// into plain ones, removes a trailing colon and lower-cases the result. The
// export tool has emitted all of these variations at one point or another.
func normalizeColumnName(name string) string {
	s := strings.TrimPrefix(name, "\uFEFF")
	s = strings.ReplaceAll(s, "\u00A0", " ")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	return strings.ToLower(strings.TrimSpace(s))
}

// TableLoader turns a survey CSV export into the normalized event list and
// person registry.
type TableLoader struct{}

func NewTableLoader() *TableLoader { return &TableLoader{} }

// eventColumn is one resolved events column and the dependent default that
// applies to everything parsed out of it.
type eventColumn struct {
	index     int
	dependent bool
}

// personRow is the fold state per derived full name while deduplicating
// submissions.
type personRow struct {
	submittedAt time.Time
	record      []string
	details     PersonalDetails
}

// LoadFile is a convenience wrapper over Load for path-based callers.
func (l *TableLoader) LoadFile(path string) ([]models.Event, map[string]models.PersonInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event table %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load reads the whole table, resolves column synonyms, keeps only the
// latest submission per person and assembles the sorted event list plus the
// person registry. Events whose date cannot be parsed are dropped without
// error: tolerating messy free-text rows is the point of this loader.
func (l *TableLoader) Load(r io.Reader) ([]models.Event, map[string]models.PersonInfo, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	submissionIdx := -1
	personalDataIdx := -1
	givenNameIdx := -1
	familyNameIdx := -1
	var eventCols []eventColumn

	for i, name := range header {
		switch columnSynonyms[normalizeColumnName(name)] {
		case colSubmission:
			submissionIdx = i
		case colEvents:
			eventCols = append(eventCols, eventColumn{index: i})
		case colDependentEvents:
			eventCols = append(eventCols, eventColumn{index: i, dependent: true})
		case colPersonalData:
			personalDataIdx = i
		case colGivenName:
			givenNameIdx = i
		case colFamilyName:
			familyNameIdx = i
		}
	}

	var missing []string
	if submissionIdx < 0 {
		missing = append(missing, "submission timestamp")
	}
	if len(eventCols) == 0 {
		missing = append(missing, "events")
	}
	if personalDataIdx < 0 && givenNameIdx < 0 {
		missing = append(missing, "personal data or name")
	}
	if len(missing) > 0 {
		return nil, nil, &SchemaError{Missing: missing}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	// Fold rows keyed by derived full name, keeping the row with the latest
	// submission timestamp. Ties keep the first-seen row so ordering stays
	// deterministic regardless of map iteration.
	latest := make(map[string]*personRow)
	var nameOrder []string

	for _, record := range records {
		details := l.extractDetails(record, personalDataIdx, givenNameIdx, familyNameIdx)
		fullName := strings.TrimSpace(details.GivenName + " " + details.FamilyName)
		if fullName == "" {
			continue
		}

		submittedAt := parseSubmissionTime(cellAt(record, submissionIdx))
		existing, seen := latest[fullName]
		if !seen {
			latest[fullName] = &personRow{submittedAt: submittedAt, record: record, details: details}
			nameOrder = append(nameOrder, fullName)
			continue
		}
		if submittedAt.After(existing.submittedAt) {
			existing.submittedAt = submittedAt
			existing.record = record
			existing.details = details
		}
	}

	events := make([]models.Event, 0)
	people := make(map[string]models.PersonInfo, len(nameOrder))

	for _, fullName := range nameOrder {
		row := latest[fullName]
		people[fullName] = buildPersonInfo(row.details)

		for _, col := range eventCols {
			for _, pe := range ParseEventField(cellAt(row.record, col.index), col.dependent) {
				date, ok := ParseDate(pe.DateText)
				if !ok {
					if logger.L != nil {
						logger.L.Debug("Dropping event with unparseable date", "person", fullName, "title", pe.Title, "dateText", pe.DateText)
					}
					continue
				}
				events = append(events, models.Event{
					PersonName:    fullName,
					Title:         pe.Title,
					Category:      pe.Category,
					DateText:      pe.DateText,
					Date:          date,
					DependentName: pe.DependentName,
					IsDependent:   pe.IsDependent,
					Cost:          pe.Cost,
				})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	return events, people, nil
}

func (l *TableLoader) extractDetails(record []string, personalDataIdx, givenNameIdx, familyNameIdx int) PersonalDetails {
	if personalDataIdx >= 0 {
		if details := ParsePersonalDetails(cellAt(record, personalDataIdx)); details.GivenName != "" {
			return details
		}
	}
	return PersonalDetails{
		GivenName:  strings.TrimSpace(cellAt(record, givenNameIdx)),
		FamilyName: strings.TrimSpace(cellAt(record, familyNameIdx)),
	}
}

func buildPersonInfo(details PersonalDetails) models.PersonInfo {
	info := models.PersonInfo{
		GivenName:  details.GivenName,
		FamilyName: details.FamilyName,
		SexText:    details.SexText,
		Sex:        NormalizeSex(details.SexText),
	}
	if birth, ok := ParseDate(details.BirthDateText); ok {
		info.BirthDate = &birth
	}
	return info
}

func cellAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseSubmissionTime resolves a submission timestamp with the same
// day-first-then-month-first policy as ParseDate, tolerating an optional
// clock component. Unparseable timestamps collapse to the zero time, which
// loses against every real timestamp, so a malformed row never displaces a
// well-formed one.
func parseSubmissionTime(text string) time.Time {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return time.Time{}
	}
	date, ok := ParseDate(fields[0])
	if !ok {
		return time.Time{}
	}
	if len(fields) > 1 {
		date = date.Add(parseClock(fields[1]))
	}
	return date
}

func parseClock(text string) time.Duration {
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total += time.Duration(n) * units[i]
	}
	return total
}
