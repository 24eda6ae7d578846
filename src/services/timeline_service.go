package services

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/lifetimeline/backend/src/database"
	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/models"
	"github.com/username/lifetimeline/backend/src/parsers"
	"github.com/username/lifetimeline/backend/src/security/validation"
)

const (
	ckTimeline = "res_timeline_dataset_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	dateStorageLayout = "2006-01-02"
)

type timelineServiceImpl struct {
	loader          *parsers.TableLoader
	mortalityMale   map[int]int
	mortalityFemale map[int]int
	reportCache     *cache.Cache
}

func NewTimelineService(mortalityMale, mortalityFemale map[int]int, reportCache *cache.Cache) TimelineService {
	return &timelineServiceImpl{
		loader:          parsers.NewTableLoader(),
		mortalityMale:   mortalityMale,
		mortalityFemale: mortalityFemale,
		reportCache:     reportCache,
	}
}

func (s *timelineServiceImpl) ProcessUpload(fileReader io.Reader) (*TimelineResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START")

	events, people, err := s.loader.Load(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if len(events) == 0 && len(people) == 0 {
		return nil, fmt.Errorf("%w: no usable rows in file", ErrParsingFailed)
	}

	for i := range events {
		events[i].Title = validation.SanitizeForFormulaInjection(validation.StripUnprintable(events[i].Title))
		events[i].Cost = validation.SanitizeForFormulaInjection(validation.StripUnprintable(events[i].Cost))
		events[i].DependentName = validation.StripUnprintable(events[i].DependentName)
	}

	datasetID := uuid.New().String()
	createdAt := time.Now().UTC()

	// --- Database Insertion ---
	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.Exec(`INSERT INTO datasets (id, created_at, event_count, person_count) VALUES (?, ?, ?, ?)`,
		datasetID, createdAt, len(events), len(people))
	if err != nil {
		return nil, fmt.Errorf("error inserting dataset row: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO events (dataset_id, person_name, title, category, date_text, event_date, dependent_name, is_dependent, cost) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing event insert statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		_, err := stmt.Exec(datasetID, ev.PersonName, ev.Title, ev.Category, ev.DateText,
			ev.Date.Format(dateStorageLayout), ev.DependentName, ev.IsDependent, ev.Cost)
		if err != nil {
			return nil, fmt.Errorf("error inserting event (title: %s): %w", ev.Title, err)
		}
	}

	personStmt, err := dbTx.Prepare(`INSERT INTO people (dataset_id, full_name, given_name, family_name, sex_text, sex, birth_date) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing person insert statement: %w", err)
	}
	defer personStmt.Close()

	for fullName, person := range people {
		birthDate := ""
		if person.BirthDate != nil {
			birthDate = person.BirthDate.Format(dateStorageLayout)
		}
		_, err := personStmt.Exec(datasetID, fullName, person.GivenName, person.FamilyName,
			person.SexText, string(person.Sex), birthDate)
		if err != nil {
			return nil, fmt.Errorf("error inserting person (name: %s): %w", fullName, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing dataset: %w", err)
	}

	result := &TimelineResult{
		Dataset: models.Dataset{
			ID:          datasetID,
			CreatedAt:   createdAt,
			EventCount:  len(events),
			PersonCount: len(people),
		},
		Events: events,
		People: people,
	}
	s.reportCache.Set(fmt.Sprintf(ckTimeline, datasetID), result, DefaultCacheExpiration)

	logger.L.Info("ProcessUpload END", "datasetID", datasetID,
		"events", len(events), "people", len(people), "duration", time.Since(overallStartTime))
	return result, nil
}

func (s *timelineServiceImpl) GetTimeline(datasetID string) (*TimelineResult, error) {
	cacheKey := fmt.Sprintf(ckTimeline, datasetID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for GetTimeline", "datasetID", datasetID)
		return cached.(*TimelineResult), nil
	}
	logger.L.Info("Cache miss for GetTimeline, fetching from DB", "datasetID", datasetID)

	var ds models.Dataset
	err := database.DB.QueryRow(`SELECT id, created_at, event_count, person_count FROM datasets WHERE id = ?`, datasetID).
		Scan(&ds.ID, &ds.CreatedAt, &ds.EventCount, &ds.PersonCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
		}
		return nil, fmt.Errorf("error querying dataset %s: %w", datasetID, err)
	}

	events, err := fetchDatasetEvents(datasetID)
	if err != nil {
		return nil, err
	}
	people, err := fetchDatasetPeople(datasetID)
	if err != nil {
		return nil, err
	}

	result := &TimelineResult{Dataset: ds, Events: events, People: people}
	s.reportCache.Set(cacheKey, result, DefaultCacheExpiration)
	return result, nil
}

func (s *timelineServiceImpl) GetExpectancy(datasetID string, asOf time.Time) ([]ExpectancyEntry, error) {
	timeline, err := s.GetTimeline(datasetID)
	if err != nil {
		return nil, err
	}

	entries := make([]ExpectancyEntry, 0, len(timeline.People))
	for _, name := range orderedPersonNames(timeline) {
		person := timeline.People[name]
		entry := ExpectancyEntry{PersonName: name}

		table := s.tableForSex(person.Sex)
		if table == nil || person.BirthDate == nil {
			entries = append(entries, entry)
			continue
		}

		age := yearsBetween(*person.BirthDate, asOf)
		if age < 0 {
			entries = append(entries, entry)
			continue
		}
		remaining, ok := table[age]
		if !ok {
			logger.L.Debug("Age not covered by mortality table", "datasetID", datasetID, "age", age)
			entry.Age = age
			entries = append(entries, entry)
			continue
		}

		entry.Age = age
		entry.RemainingYears = remaining
		entry.HorizonYear = asOf.Year() + remaining
		entry.Known = true
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *timelineServiceImpl) tableForSex(sex models.Sex) map[int]int {
	switch sex {
	case models.SexMale:
		return s.mortalityMale
	case models.SexFemale:
		return s.mortalityFemale
	default:
		return nil
	}
}

// yearsBetween counts completed calendar years from birth to asOf.
func yearsBetween(birth, asOf time.Time) int {
	years := asOf.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(asOf) {
		years--
	}
	return years
}

// orderedPersonNames lists people in a stable order so responses (and their
// ETags) are deterministic across requests.
func orderedPersonNames(timeline *TimelineResult) []string {
	seen := make(map[string]bool, len(timeline.People))
	names := make([]string, 0, len(timeline.People))
	for _, ev := range timeline.Events {
		if !seen[ev.PersonName] {
			if _, ok := timeline.People[ev.PersonName]; ok {
				seen[ev.PersonName] = true
				names = append(names, ev.PersonName)
			}
		}
	}
	for name := range timeline.People {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func fetchDatasetEvents(datasetID string) ([]models.Event, error) {
	rows, err := database.DB.Query(`SELECT id, person_name, title, category, date_text, event_date, dependent_name, is_dependent, cost FROM events WHERE dataset_id = ? ORDER BY event_date ASC, id ASC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("error querying events for dataset %s: %w", datasetID, err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		var eventDate string
		if scanErr := rows.Scan(&ev.ID, &ev.PersonName, &ev.Title, &ev.Category, &ev.DateText,
			&eventDate, &ev.DependentName, &ev.IsDependent, &ev.Cost); scanErr != nil {
			return nil, fmt.Errorf("error scanning event row for dataset %s: %w", datasetID, scanErr)
		}
		parsed, parseErr := time.Parse(dateStorageLayout, eventDate)
		if parseErr != nil {
			return nil, fmt.Errorf("error parsing stored event date %q for dataset %s: %w", eventDate, datasetID, parseErr)
		}
		ev.Date = parsed
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over event rows for dataset %s: %w", datasetID, err)
	}
	return events, nil
}

func fetchDatasetPeople(datasetID string) (map[string]models.PersonInfo, error) {
	rows, err := database.DB.Query(`SELECT full_name, given_name, family_name, sex_text, sex, birth_date FROM people WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("error querying people for dataset %s: %w", datasetID, err)
	}
	defer rows.Close()

	people := make(map[string]models.PersonInfo)
	for rows.Next() {
		var fullName, sex, birthDate string
		var person models.PersonInfo
		if scanErr := rows.Scan(&fullName, &person.GivenName, &person.FamilyName,
			&person.SexText, &sex, &birthDate); scanErr != nil {
			return nil, fmt.Errorf("error scanning person row for dataset %s: %w", datasetID, scanErr)
		}
		person.Sex = models.Sex(sex)
		if birthDate != "" {
			parsed, parseErr := time.Parse(dateStorageLayout, birthDate)
			if parseErr != nil {
				return nil, fmt.Errorf("error parsing stored birth date %q for dataset %s: %w", birthDate, datasetID, parseErr)
			}
			person.BirthDate = &parsed
		}
		people[fullName] = person
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over person rows for dataset %s: %w", datasetID, err)
	}
	return people, nil
}
