package session

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleSnapshot() *Snapshot {
	gut := "Root"
	return &Snapshot{
		AllClusters: []ClusterRecord{
			{Name: "Root", Parent: nil},
			{Name: "Gut", Parent: &gut},
		},
		VisibleClusters:      []string{"Root", "Gut"},
		VisiblePhages:        []string{"T4", "Lambda"},
		BacteriaClusters:     map[string]string{"ecoli": "Gut", "subtilis": "Root"},
		ClusterBacteriaOrder: map[string][]string{"Root": {"subtilis"}, "Gut": {"ecoli"}},
		ClusterChildrenOrder: map[string][]string{"Root": {"Gut"}},
	}
}

func TestRoundTrip(t *testing.T) {
	want := sampleSnapshot()

	data, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeMissingRequiredField(t *testing.T) {
	snap := sampleSnapshot()
	data, err := Encode(snap)
	if err != nil {
		t.Fatal(err)
	}

	for _, field := range requiredFields {
		broken := strings.Replace(string(data), `"`+field+`"`, `"x-`+field+`"`, 1)

		_, err := Decode([]byte(broken))
		var invalid *InvalidSessionError
		if !errors.As(err, &invalid) {
			t.Errorf("Dropping %s: expected InvalidSessionError, got %v", field, err)
			continue
		}
		if invalid.Field != field {
			t.Errorf("Expected error to name %s, got %s", field, invalid.Field)
		}
	}
}

func TestDecodeOptionalChildrenOrder(t *testing.T) {
	snap := sampleSnapshot()
	snap.ClusterChildrenOrder = nil
	data, err := Encode(snap)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode without clusterChildrenOrder failed: %v", err)
	}
	if got.ClusterChildrenOrder != nil {
		t.Errorf("Expected nil children order, got %v", got.ClusterChildrenOrder)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("Expected error for malformed input")
	}
}

func TestEncodeNormalizesNilFields(t *testing.T) {
	data, err := Encode(&Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range requiredFields {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("Encoded empty snapshot missing %s: %s", field, data)
		}
	}
}
