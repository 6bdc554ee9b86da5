package review

import (
	"testing"

	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/internal/hierarchy"
)

func i64p(v int64) *int64 { return &v }

func suggesterIndex(t *testing.T) *hierarchy.Index {
	t.Helper()
	rows := map[int][]models.HierarchyRow{
		models.LevelDepartment: {
			{ID: 1, DisplayName: "La Libertad", SearchName: "la libertad"},
		},
		models.LevelMunicipality: {
			{ID: 100, DisplayName: "Soyapango", ParentID: i64p(1)},
			{ID: 101, DisplayName: "Santa Tecla", ParentID: i64p(1)},
		},
		models.LevelColonia: {
			{ID: 1000, DisplayName: "Colonia Escalón", ParentID: i64p(101)},
		},
	}
	return hierarchy.Build(rows, zap.NewNop())
}

func TestSuggestFindsTypo(t *testing.T) {
	s := NewSuggester(suggesterIndex(t))

	// "soyapngo" is one deletion away from "soyapango".
	suggestions := s.Suggest("venta de casa en soyapngo", 5)
	if len(suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if suggestions[0].ID != 100 {
		t.Errorf("top suggestion id = %d, want 100", suggestions[0].ID)
	}
	if suggestions[0].Matched != "soyapngo" {
		t.Errorf("matched window = %q, want the typo", suggestions[0].Matched)
	}
	if suggestions[0].Similarity < 0.85 {
		t.Errorf("similarity = %v, below the floor", suggestions[0].Similarity)
	}
}

func TestSuggestIgnoresDistantNames(t *testing.T) {
	s := NewSuggester(suggesterIndex(t))

	for _, sg := range s.Suggest("terreno agricola en oriente", 5) {
		if sg.DisplayName == "Soyapango" || sg.DisplayName == "Santa Tecla" {
			t.Errorf("unexpected suggestion %q for unrelated text", sg.DisplayName)
		}
	}
}

func TestSuggestExactNameScoresHighest(t *testing.T) {
	s := NewSuggester(suggesterIndex(t))

	suggestions := s.Suggest("apartamento en santa tecla", 5)
	if len(suggestions) == 0 {
		t.Fatal("expected a suggestion for the exact name")
	}
	if suggestions[0].ID != 101 {
		t.Errorf("top suggestion id = %d, want 101", suggestions[0].ID)
	}
	if suggestions[0].Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0 for the exact name", suggestions[0].Similarity)
	}
}

func TestSuggestRespectsLimit(t *testing.T) {
	s := NewSuggester(suggesterIndex(t))

	if got := s.Suggest("santa tecla soyapango", 1); len(got) > 1 {
		t.Errorf("limit 1 returned %d suggestions", len(got))
	}
}

func TestSuggestEmptyText(t *testing.T) {
	s := NewSuggester(suggesterIndex(t))

	if got := s.Suggest("   ", 5); got != nil {
		t.Errorf("expected nil for blank text, got %d suggestions", len(got))
	}
}
