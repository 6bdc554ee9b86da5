package matcher

import (
	"testing"

	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/internal/normalizer"
)

func newTestOrchestrator(t *testing.T, strategy Strategy) *Orchestrator {
	t.Helper()
	return NewOrchestrator(fixtureIndex(t), NewDefault(), strategy, zap.NewNop())
}

func checkChain(t *testing.T, record models.MatchRecord, want [4]*int64) {
	t.Helper()
	got := [4]*int64{record.LocGroup2ID, record.LocGroup3ID, record.LocGroup4ID, record.LocGroup5ID}
	for i, level := range []int{2, 3, 4, 5} {
		switch {
		case want[i] == nil && got[i] != nil:
			t.Errorf("level %d: got id %d, want null", level, *got[i])
		case want[i] != nil && got[i] == nil:
			t.Errorf("level %d: got null, want id %d", level, *want[i])
		case want[i] != nil && got[i] != nil && *want[i] != *got[i]:
			t.Errorf("level %d: got id %d, want id %d", level, *got[i], *want[i])
		}
	}
}

func TestMunicipalityFirstResolvesMunicipality(t *testing.T) {
	o := newTestOrchestrator(t, StrategyMunicipalityFirst)

	// "Antiguo Cuscatlán" embeds the department name "Cuscatlán". Probing
	// municipalities first resolves it to the municipality in La Libertad,
	// not the department Cuscatlán.
	record := o.Match(7, normalizer.SourceTexts{
		Location: "apartamento en antiguo cuscatlan, la libertad",
	})

	if !record.Matched() {
		t.Fatal("expected a match")
	}
	checkChain(t, record, [4]*int64{nil, i64p(100), i64p(10), i64p(1)})
	if record.MatchLevel == nil || *record.MatchLevel != models.LevelMunicipality {
		t.Errorf("match level = %v, want municipality", record.MatchLevel)
	}
	if record.ExternalID != 7 {
		t.Errorf("external id = %d, want 7", record.ExternalID)
	}
}

func TestMunicipalityFirstFallsBackToDepartment(t *testing.T) {
	o := newTestOrchestrator(t, StrategyMunicipalityFirst)

	record := o.Match(8, normalizer.SourceTexts{Title: "venta de terreno en cuscatlan"})

	if !record.Matched() {
		t.Fatal("expected a department match")
	}
	checkChain(t, record, [4]*int64{nil, nil, nil, i64p(2)})
	if record.MatchLevel == nil || *record.MatchLevel != models.LevelDepartment {
		t.Errorf("match level = %v, want department", record.MatchLevel)
	}
}

func TestMunicipalityFirstUpgradesToColonia(t *testing.T) {
	o := newTestOrchestrator(t, StrategyMunicipalityFirst)

	record := o.Match(9, normalizer.SourceTexts{
		Location: "residencial utila, santa tecla",
	})

	if !record.Matched() {
		t.Fatal("expected a match")
	}
	checkChain(t, record, [4]*int64{i64p(1001), i64p(101), i64p(10), i64p(1)})
	if record.MatchLevel == nil || *record.MatchLevel != models.LevelColonia {
		t.Errorf("match level = %v, want colonia", record.MatchLevel)
	}
}

func TestMunicipalityFirstGlobalColoniaLastResort(t *testing.T) {
	o := newTestOrchestrator(t, StrategyMunicipalityFirst)

	record := o.Match(10, normalizer.SourceTexts{Title: "casa en residencial utila"})

	if !record.Matched() {
		t.Fatal("expected a colonia match")
	}
	// The colonia's own chain still resolves every ancestor level.
	checkChain(t, record, [4]*int64{i64p(1001), i64p(101), i64p(10), i64p(1)})
}

func TestDepartmentFirstScopedDescent(t *testing.T) {
	o := newTestOrchestrator(t, StrategyDepartmentFirst)

	record := o.Match(11, normalizer.SourceTexts{
		Location: "la libertad",
		Title:    "casa en santa tecla",
	})

	if !record.Matched() {
		t.Fatal("expected a match")
	}
	// The department match is refined to the municipality found in scope.
	checkChain(t, record, [4]*int64{nil, i64p(101), i64p(10), i64p(1)})
	if record.MatchLevel == nil || *record.MatchLevel != models.LevelMunicipality {
		t.Errorf("match level = %v, want municipality", record.MatchLevel)
	}
}

func TestDepartmentFirstDescentPrefersMostSpecific(t *testing.T) {
	o := newTestOrchestrator(t, StrategyDepartmentFirst)

	record := o.Match(12, normalizer.SourceTexts{
		Location: "la libertad",
		Title:    "cima 1, santa tecla",
	})

	if !record.Matched() {
		t.Fatal("expected a match")
	}
	if record.MatchLevel == nil || *record.MatchLevel != models.LevelColonia {
		t.Fatalf("match level = %v, want colonia", record.MatchLevel)
	}
	checkChain(t, record, [4]*int64{i64p(1000), i64p(100), i64p(10), i64p(1)})
}

func TestDepartmentFirstKeepsDepartmentWhenNothingInScope(t *testing.T) {
	o := newTestOrchestrator(t, StrategyDepartmentFirst)

	record := o.Match(13, normalizer.SourceTexts{Location: "cuscatlan"})

	if !record.Matched() {
		t.Fatal("expected a department match")
	}
	checkChain(t, record, [4]*int64{nil, nil, nil, i64p(2)})
}

func TestDescriptionOnlyMentionRejectedUnderWeighting(t *testing.T) {
	o := newTestOrchestrator(t, StrategyDepartmentFirst)

	// 1.0 × 0.75 sits below the threshold, so a department named only in
	// the description is a no-match rather than a weak match.
	record := o.Match(14, normalizer.SourceTexts{Description: "cerca de san salvador"})

	if record.Matched() {
		t.Errorf("expected no match, got level %v", record.MatchLevel)
	}
	checkChain(t, record, [4]*int64{nil, nil, nil, nil})
}

func TestEmptyTextsShortCircuit(t *testing.T) {
	o := newTestOrchestrator(t, StrategyMunicipalityFirst)

	record := o.Match(15, normalizer.SourceTexts{})

	if record.Matched() {
		t.Error("empty texts must never match")
	}
	if record.ExternalID != 15 {
		t.Errorf("external id = %d, want 15", record.ExternalID)
	}
	if record.MatchScore != nil || record.MatchSource != nil || record.MatchedText != nil {
		t.Error("no-match record must keep all provenance fields null")
	}
}

func TestMatchProvenanceFields(t *testing.T) {
	o := newTestOrchestrator(t, StrategyMunicipalityFirst)

	record := o.Match(16, normalizer.SourceTexts{Location: "santa tecla"})

	if record.MatchScore == nil || *record.MatchScore != 1.0 {
		t.Errorf("score = %v, want 1.0", record.MatchScore)
	}
	if record.MatchSource == nil || *record.MatchSource != "location" {
		t.Errorf("source = %v, want location", record.MatchSource)
	}
	if record.MatchedText == nil || *record.MatchedText != "Santa Tecla" {
		t.Errorf("matched text = %v, want Santa Tecla", record.MatchedText)
	}
}

func TestParseStrategy(t *testing.T) {
	if _, err := ParseStrategy("department-first"); err != nil {
		t.Error(err)
	}
	if _, err := ParseStrategy("municipality-first"); err != nil {
		t.Error(err)
	}
	if _, err := ParseStrategy("bogus"); err == nil {
		t.Error("expected an error for an unknown strategy")
	}
}
