package parsers

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LoadMortalityTable loads an age → expected-remaining-years table from a
// ";"-delimited file. A missing file yields an empty table, not an error:
// the expectancy feature simply stays silent without its data. A real read
// failure propagates.
//
// Rows are accepted only when the first field is entirely numeric after
// removing embedded spaces, which filters out the header and any stray
// header-like rows further down. A decimal comma in the second field is
// normalized before the value is floored to an integer.
func LoadMortalityTable(path string) (map[int]int, error) {
	table := make(map[int]int)
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("failed to read mortality table %s: %w", path, err)
	}

	for _, rawLine := range strings.Split(decodeTableText(raw), "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
		if line == "" {
			continue
		}
		parts := strings.Split(line, ";")
		if len(parts) < 2 {
			continue
		}

		ageField := strings.ReplaceAll(strings.TrimSpace(parts[0]), " ", "")
		if !isDigits(ageField) {
			// Header on the first line, or a stray header-like row further down.
			continue
		}

		age, err := strconv.Atoi(ageField)
		if err != nil {
			continue
		}
		yearsField := strings.ReplaceAll(strings.TrimSpace(parts[1]), ",", ".")
		years, err := strconv.ParseFloat(yearsField, 64)
		if err != nil {
			continue
		}
		remaining := int(years)
		if age >= 0 && remaining >= 0 {
			table[age] = remaining
		}
	}
	return table, nil
}

// LoadMortalityTables pairs two independent loads, one per sex.
func LoadMortalityTables(malePath, femalePath string) (map[int]int, map[int]int, error) {
	male, err := LoadMortalityTable(malePath)
	if err != nil {
		return nil, nil, err
	}
	female, err := LoadMortalityTable(femalePath)
	if err != nil {
		return nil, nil, err
	}
	return male, female, nil
}

// decodeTableText handles the encodings these files arrive in: BOM-prefixed
// UTF-8, plain UTF-8, and Latin-1. Latin-1 decoding is total, so this never
// fails; only the file read itself can.
func decodeTableText(raw []byte) string {
	raw = []byte(strings.TrimPrefix(string(raw), "\uFEFF"))
	if utf8.Valid(raw) {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
