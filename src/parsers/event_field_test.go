package parsers

import "testing"

func TestParseEventFieldV3(t *testing.T) {
	text := "Titolo Evento: Matrimonio, Categoria: Progetto, Data Evento: 15/06/2026, A Carico?: Sì, Nome del Familiare A Carico: Luca, Costo: 20.000 €"
	events := ParseEventField(text, false)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Title != "Matrimonio" {
		t.Errorf("Title = %q, want %q", ev.Title, "Matrimonio")
	}
	if ev.Category != "progetto" {
		t.Errorf("Category = %q, want %q", ev.Category, "progetto")
	}
	if ev.DateText != "15/06/2026" {
		t.Errorf("DateText = %q, want %q", ev.DateText, "15/06/2026")
	}
	if !ev.IsDependent {
		t.Error("IsDependent = false, want true")
	}
	if ev.DependentName != "Luca" {
		t.Errorf("DependentName = %q, want %q", ev.DependentName, "Luca")
	}
	if ev.Cost != "20.000 €" {
		t.Errorf("Cost = %q, want %q", ev.Cost, "20.000 €")
	}
	if ev.Schema != SchemaV3 {
		t.Errorf("Schema = %v, want SchemaV3", ev.Schema)
	}
}

func TestParseEventFieldV3NoOverridesDependentName(t *testing.T) {
	text := "Titolo Evento: Laurea, Categoria: Studio, Data Evento: 1/9/2027, A Carico?: No, Nome del Familiare A Carico: Anna"
	events := ParseEventField(text, false)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].IsDependent {
		t.Error("IsDependent = true, want false")
	}
	if events[0].DependentName != "" {
		t.Errorf("DependentName = %q, want empty", events[0].DependentName)
	}
}

func TestParseEventFieldAccentedYes(t *testing.T) {
	text := "Titolo Evento: Trasloco, Categoria: Famiglia, Data Evento: 3/3/2029, A Carico?: SÌ, Nome del Familiare A Carico: Marta"
	events := ParseEventField(text, false)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !events[0].IsDependent {
		t.Error("IsDependent = false, want true for uppercase accented SÌ")
	}
	if events[0].DependentName != "Marta" {
		t.Errorf("DependentName = %q, want %q", events[0].DependentName, "Marta")
	}
}

func TestParseEventFieldV2AndV1(t *testing.T) {
	text := "Titolo Evento: Pensione, Categoria: Finanze, Data Evento: 1/1/2040, Nome del Familiare: \n" +
		"Titolo: Auto nuova, Categoria: Acquisti, Data: 10/10/2025"
	events := ParseEventField(text, false)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Schema != SchemaV2 {
		t.Errorf("first Schema = %v, want SchemaV2", events[0].Schema)
	}
	if events[0].IsDependent {
		t.Error("first IsDependent = true, want false with empty dependent name")
	}
	if events[1].Schema != SchemaV1 {
		t.Errorf("second Schema = %v, want SchemaV1", events[1].Schema)
	}
	if events[1].Category != "bisogno" {
		t.Errorf("second Category = %q, want %q (legacy mapping)", events[1].Category, "bisogno")
	}
}

func TestParseEventFieldDefaultDependent(t *testing.T) {
	// Entries from the dependents column are dependent regardless of flags.
	text := "Titolo: Asilo, Categoria: Istruzione, Data: 1/9/2026"
	events := ParseEventField(text, true)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !events[0].IsDependent {
		t.Error("IsDependent = false, want true for dependents column")
	}
	if events[0].DependentName != "" {
		t.Errorf("DependentName = %q, want empty (no name invented)", events[0].DependentName)
	}
}

func TestParseEventFieldOutOfOrderFallsToFlexible(t *testing.T) {
	// Costo before A Carico? breaks the strict v3 order.
	text := "Titolo Evento: Barca, Categoria: Sogni, Data Evento: 5/5/2035, Costo: 90000, A Carico?: No, Nome del Familiare A Carico: "
	events := ParseEventField(text, false)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Schema != SchemaFlexible {
		t.Errorf("Schema = %v, want SchemaFlexible", ev.Schema)
	}
	if ev.Cost != "90000" {
		t.Errorf("Cost = %q, want %q", ev.Cost, "90000")
	}
	if ev.Category != "desiderio" {
		t.Errorf("Category = %q, want %q", ev.Category, "desiderio")
	}
	if ev.IsDependent {
		t.Error("IsDependent = true, want false")
	}
}

func TestParseEventFieldSkipsUnrecognizedLines(t *testing.T) {
	text := "this is not an event at all\n" +
		"Titolo: Viaggio, Categoria: Desiderio, Data: 7/8/2026\n" +
		"Titolo: Senza data, Categoria: Progetto, Data: domani"
	events := ParseEventField(text, false)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Title != "Viaggio" {
		t.Errorf("Title = %q, want %q", events[0].Title, "Viaggio")
	}
}

func TestParseEventFieldEmpty(t *testing.T) {
	if events := ParseEventField("   \n  ", false); len(events) != 0 {
		t.Errorf("got %d events from blank text, want 0", len(events))
	}
}

func TestNormalizeCategory(t *testing.T) {
	testCases := []struct {
		raw  string
		want string
	}{
		{"Bisogno", "bisogno"},
		{"  PROGETTO ", "progetto"},
		{"Famiglia", "progetto"},
		{"Salute", "bisogno"},
		{"Sogni", "desiderio"},
		{"xyz", "xyz"},
	}
	for _, tc := range testCases {
		if got := NormalizeCategory(tc.raw); got != tc.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
