package hierarchy

import (
	"testing"

	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
)

func i64p(v int64) *int64 { return &v }

// testRows builds a small slice of the real hierarchy: two departments, two
// regions, three municipalities and two colonias.
func testRows() map[int][]models.HierarchyRow {
	return map[int][]models.HierarchyRow{
		models.LevelDepartment: {
			{ID: 1, DisplayName: "La Libertad", SearchName: "la libertad"},
			{ID: 2, DisplayName: "Cuscatlán", SearchName: "cuscatlan"},
			{ID: 3, DisplayName: "San Salvador"},
		},
		models.LevelRegion: {
			{ID: 10, DisplayName: "Región La Libertad Este", ParentID: i64p(1)},
			{ID: 11, DisplayName: "Región San Salvador Centro", ParentID: i64p(3)},
		},
		models.LevelMunicipality: {
			{ID: 100, DisplayName: "Antiguo Cuscatlán", ParentID: i64p(10)},
			{ID: 101, DisplayName: "Santa Tecla", DetailsText: "Nueva San Salvador", ParentID: i64p(10)},
			{ID: 102, DisplayName: "Soyapango", ParentID: i64p(11)},
		},
		models.LevelColonia: {
			{ID: 1000, DisplayName: "Colonia La Cima 1", ParentID: i64p(100)},
			{ID: 1001, DisplayName: "Residencial Utila", ParentID: i64p(101)},
			{ID: 1002, DisplayName: "Colonia Huérfana", ParentID: i64p(999)},
		},
	}
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	return Build(testRows(), zap.NewNop())
}

func TestBuildNormalizesNames(t *testing.T) {
	idx := testIndex(t)

	node := idx.Node(models.LevelMunicipality, 100)
	if node == nil {
		t.Fatal("municipality 100 not indexed")
	}
	if node.NormalizedName != "antiguo cuscatlan" {
		t.Errorf("normalized name = %q, want %q", node.NormalizedName, "antiguo cuscatlan")
	}
}

func TestBuildFallsBackToDisplayName(t *testing.T) {
	idx := testIndex(t)

	// San Salvador has no search name column.
	node := idx.Node(models.LevelDepartment, 3)
	if node.NormalizedName != "san salvador" {
		t.Errorf("normalized name = %q, want %q", node.NormalizedName, "san salvador")
	}
}

func TestBuildAlternateNamesFromDetails(t *testing.T) {
	idx := testIndex(t)

	node := idx.Node(models.LevelMunicipality, 101)
	if len(node.AlternateNames) == 0 {
		t.Fatal("expected alternate names from details text")
	}
	if node.AlternateNames[0] != "nueva san salvador" {
		t.Errorf("alternate = %q, want %q", node.AlternateNames[0], "nueva san salvador")
	}
	if len(node.AltPatterns) != len(node.AlternateNames) {
		t.Errorf("patterns (%d) and alternates (%d) out of step",
			len(node.AltPatterns), len(node.AlternateNames))
	}
}

func TestBuildPrefixStrippedName(t *testing.T) {
	idx := testIndex(t)

	node := idx.Node(models.LevelColonia, 1000)
	if node.NoPrefixName != "cima 1" {
		t.Errorf("no-prefix name = %q, want %q", node.NoPrefixName, "cima 1")
	}
}

func TestNodesAtKeepsLoadOrder(t *testing.T) {
	idx := testIndex(t)

	nodes := idx.NodesAt(models.LevelMunicipality)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 municipalities, got %d", len(nodes))
	}
	wantOrder := []int64{100, 101, 102}
	for i, want := range wantOrder {
		if nodes[i].ID != want {
			t.Errorf("position %d: id = %d, want %d", i, nodes[i].ID, want)
		}
	}
}

func TestChildrenOf(t *testing.T) {
	idx := testIndex(t)

	children := idx.ChildrenOf(models.LevelMunicipality, 10)
	if len(children) != 2 {
		t.Fatalf("expected 2 municipalities under region 10, got %d", len(children))
	}
	if children[0].ID != 100 || children[1].ID != 101 {
		t.Errorf("unexpected children order: %d, %d", children[0].ID, children[1].ID)
	}

	if got := idx.ChildrenOf(models.LevelColonia, 102); len(got) != 0 {
		t.Errorf("expected no colonias under Soyapango, got %d", len(got))
	}
}

func TestScopeResolverDescendants(t *testing.T) {
	idx := testIndex(t)
	scopes := NewScopeResolver(idx)

	testCases := []struct {
		name   string
		level  int
		deptID int64
		want   []int64
	}{
		{name: "Regions Of La Libertad", level: models.LevelRegion, deptID: 1, want: []int64{10}},
		{name: "Municipalities Of La Libertad", level: models.LevelMunicipality, deptID: 1, want: []int64{100, 101}},
		{name: "Colonias Of La Libertad", level: models.LevelColonia, deptID: 1, want: []int64{1000, 1001}},
		{name: "Colonias Of Cuscatlán", level: models.LevelColonia, deptID: 2, want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set := scopes.DescendantsAtLevel(tc.level, tc.deptID)
			if len(set) != len(tc.want) {
				t.Fatalf("got %d ids, want %d", len(set), len(tc.want))
			}
			for _, id := range tc.want {
				if _, ok := set[id]; !ok {
					t.Errorf("id %d missing from scope", id)
				}
			}
		})
	}
}

func TestScopeResolverMemoizes(t *testing.T) {
	idx := testIndex(t)
	scopes := NewScopeResolver(idx)

	first := scopes.DescendantsAtLevel(models.LevelColonia, 1)
	second := scopes.DescendantsAtLevel(models.LevelColonia, 1)
	if len(first) != len(second) {
		t.Errorf("memoized result differs: %d vs %d", len(first), len(second))
	}
}

func TestParentChainFromColonia(t *testing.T) {
	idx := testIndex(t)
	chains := NewChainResolver(idx)

	chain := chains.ParentChain(1001, models.LevelColonia)

	var record models.MatchRecord
	chain.Apply(&record)

	if record.LocGroup2ID == nil || *record.LocGroup2ID != 1001 {
		t.Error("colonia id not set")
	}
	if record.LocGroup3ID == nil || *record.LocGroup3ID != 101 {
		t.Error("municipality id not set")
	}
	if record.LocGroup4ID == nil || *record.LocGroup4ID != 10 {
		t.Error("region id not set")
	}
	if record.LocGroup5ID == nil || *record.LocGroup5ID != 1 {
		t.Error("department id not set")
	}
}

func TestParentChainStopsAtBrokenLink(t *testing.T) {
	idx := testIndex(t)
	chains := NewChainResolver(idx)

	// Colonia 1002 points at a municipality that does not exist.
	chain := chains.ParentChain(1002, models.LevelColonia)

	var record models.MatchRecord
	chain.Apply(&record)

	if record.LocGroup2ID == nil || *record.LocGroup2ID != 1002 {
		t.Error("the matched level itself should still be recorded")
	}
	if record.LocGroup3ID != nil || record.LocGroup4ID != nil || record.LocGroup5ID != nil {
		t.Error("levels above a broken link must stay null")
	}
}

func TestParentChainFromDepartment(t *testing.T) {
	idx := testIndex(t)
	chains := NewChainResolver(idx)

	var record models.MatchRecord
	chains.ParentChain(2, models.LevelDepartment).Apply(&record)

	if record.LocGroup5ID == nil || *record.LocGroup5ID != 2 {
		t.Error("department id not set")
	}
	if record.LocGroup2ID != nil || record.LocGroup3ID != nil || record.LocGroup4ID != nil {
		t.Error("levels below the match must stay null")
	}
}
