package dataset

import (
	"reflect"
	"strings"
	"testing"
)

func TestFromJSON(t *testing.T) {
	data := `{
		"headers": ["T4", "Lambda"],
		"leaves": [
			{"name": "ecoli", "values": [1, 0]},
			{"name": "subtilis", "values": [0, 1]}
		]
	}`

	ds, err := FromJSON([]byte(data))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if !reflect.DeepEqual(ds.Headers, []string{"T4", "Lambda"}) {
		t.Errorf("Headers = %v", ds.Headers)
	}
	if len(ds.Leaves) != 2 || ds.Leaves[0].Name != "ecoli" {
		t.Errorf("Leaves = %v", ds.Leaves)
	}
	if !ds.Leaves[0].Interacts(0) || ds.Leaves[0].Interacts(1) {
		t.Error("ecoli interaction flags wrong")
	}
}

func TestFromCSV(t *testing.T) {
	input := "bacteria,T4,Lambda\necoli,1,0\nsubtilis,0,1\n"

	ds, err := FromCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("FromCSV failed: %v", err)
	}
	if !reflect.DeepEqual(ds.Headers, []string{"T4", "Lambda"}) {
		t.Errorf("Headers = %v", ds.Headers)
	}
	if got := ds.Leaves[1].Values; !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("subtilis values = %v", got)
	}
}

func TestFromCSVRejectsNonInteger(t *testing.T) {
	input := "bacteria,T4\necoli,yes\n"
	if _, err := FromCSV(strings.NewReader(input)); err == nil {
		t.Error("Expected error for non-integer cell")
	}
}

func TestValidateDuplicateLeaf(t *testing.T) {
	data := `{"headers": ["T4"], "leaves": [
		{"name": "ecoli", "values": [1]},
		{"name": "ecoli", "values": [0]}
	]}`
	if _, err := FromJSON([]byte(data)); err == nil {
		t.Error("Expected error for duplicate leaf name")
	}
}

func TestValidateRaggedVector(t *testing.T) {
	data := `{"headers": ["T4", "Lambda"], "leaves": [
		{"name": "ecoli", "values": [1]}
	]}`
	if _, err := FromJSON([]byte(data)); err == nil {
		t.Error("Expected error for ragged vector")
	}
}
