package tree

import (
	"reflect"
	"sort"
	"testing"

	"github.com/biolattice/phagegrid/pkg/assignment"
	"github.com/biolattice/phagegrid/pkg/hierarchy"
	"github.com/biolattice/phagegrid/pkg/model"
)

func testDataset() *model.Dataset {
	return &model.Dataset{
		Headers: []string{"T4", "Lambda"},
		Leaves: []model.Leaf{
			{Name: "ecoli", Values: []int{1, 0}},
			{Name: "subtilis", Values: []int{0, 1}},
			{Name: "coelicolor", Values: []int{1, 1}},
		},
	}
}

func allVisible(h *hierarchy.Hierarchy) map[string]bool {
	v := make(map[string]bool)
	for _, c := range h.Clusters() {
		v[c.Name] = true
	}
	return v
}

func TestBuildNilWithoutDataset(t *testing.T) {
	h := hierarchy.New()
	if got := Build(nil, h, assignment.NewStore(), allVisible(h)); got != nil {
		t.Errorf("Expected nil tree without a dataset, got %v", got)
	}
}

func TestBuildNeverDropsLeaves(t *testing.T) {
	ds := testDataset()
	h := hierarchy.New()
	if err := h.AddCluster("Gut", hierarchy.RootName); err != nil {
		t.Fatal(err)
	}
	store := assignment.NewStore()
	store.AssignLeaf("ecoli", "Gut")
	store.AssignLeaf("subtilis", hierarchy.RootName)
	store.AssignLeaf("coelicolor", "DoesNotExist") // must fall back to Root

	top := Build(ds, h, store, allVisible(h))
	if top == nil || top.Name != TopName {
		t.Fatalf("Expected top node %q, got %v", TopName, top)
	}

	got := top.LeafNames()
	sort.Strings(got)
	want := []string{"coelicolor", "ecoli", "subtilis"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tree leaves = %v, want %v", got, want)
	}
}

func TestBuildLeafOrderWithinCluster(t *testing.T) {
	ds := testDataset()
	h := hierarchy.New()
	store := assignment.NewStore()
	store.InitCluster(hierarchy.RootName)
	for _, leaf := range []string{"ecoli", "subtilis", "coelicolor"} {
		store.AssignLeaf(leaf, hierarchy.RootName)
	}
	store.ReorderLeaf(hierarchy.RootName, "coelicolor", assignment.Earlier)

	top := Build(ds, h, store, allVisible(h))
	root := top.Children[0]
	want := []string{"ecoli", "coelicolor", "subtilis"}
	if got := root.LeafNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("Leaf order = %v, want %v", got, want)
	}
}

func TestBuildAppendsLeavesMissingFromOrderList(t *testing.T) {
	ds := testDataset()
	h := hierarchy.New()
	store := assignment.NewStore()
	// Order list only knows subtilis; the other assignments still render.
	store.Replace(
		map[string]string{"ecoli": "Root", "subtilis": "Root", "coelicolor": "Root"},
		map[string][]string{"Root": {"subtilis"}},
		nil,
	)

	top := Build(ds, h, store, allVisible(h))
	want := []string{"subtilis", "ecoli", "coelicolor"} // ordered entry first, rest in dataset order
	if got := top.Children[0].LeafNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("Leaf order = %v, want %v", got, want)
	}
}

func TestBuildChildOrder(t *testing.T) {
	ds := testDataset()
	h := hierarchy.New()
	for _, name := range []string{"A", "B", "C"} {
		if err := h.AddCluster(name, hierarchy.RootName); err != nil {
			t.Fatal(err)
		}
	}
	store := assignment.NewStore()
	store.AssignLeaf("ecoli", hierarchy.RootName)
	store.RecordChild(hierarchy.RootName, "C")
	store.RecordChild(hierarchy.RootName, "A")

	top := Build(ds, h, store, allVisible(h))
	root := top.Children[0]
	var branchNames []string
	for _, c := range root.Children {
		if c.IsBranch() {
			branchNames = append(branchNames, c.Name)
		}
	}
	// Declared entries first, undeclared B keeps creation-order position.
	want := []string{"C", "A", "B"}
	if !reflect.DeepEqual(branchNames, want) {
		t.Errorf("Child order = %v, want %v", branchNames, want)
	}
	// Direct leaves come before child branches.
	if root.Children[0].Kind != model.KindLeaf {
		t.Errorf("Expected leaf first, got %v", root.Children[0].Kind)
	}
}

func TestBuildVisibilityPrunesSubtrees(t *testing.T) {
	ds := testDataset()
	h := hierarchy.New()
	if err := h.AddCluster("Hidden", hierarchy.RootName); err != nil {
		t.Fatal(err)
	}
	if err := h.AddCluster("Inner", "Hidden"); err != nil {
		t.Fatal(err)
	}
	store := assignment.NewStore()
	store.AssignLeaf("ecoli", "Inner")
	store.AssignLeaf("subtilis", hierarchy.RootName)

	visible := allVisible(h)
	visible["Hidden"] = false

	top := Build(ds, h, store, visible)
	got := top.LeafNames()
	// Inner is visible but only reachable through Hidden: the whole
	// subtree goes, leaves included.
	if !reflect.DeepEqual(got, []string{"subtilis"}) {
		t.Errorf("Visible leaves = %v, want [subtilis]", got)
	}
}

func TestBuildDanglingParentBecomesTopLevel(t *testing.T) {
	ds := testDataset()
	h := hierarchy.New()
	if err := h.AddCluster("Orphan", "Ghost"); err != nil {
		t.Fatal(err)
	}
	store := assignment.NewStore()
	store.AssignLeaf("ecoli", "Orphan")

	visible := allVisible(h)
	top := Build(ds, h, store, visible)

	var names []string
	for _, c := range top.Children {
		names = append(names, c.Name)
	}
	if !reflect.DeepEqual(names, []string{hierarchy.RootName, "Orphan"}) {
		t.Errorf("Top-level branches = %v", names)
	}
}
