// Package session encodes and decodes the serializable workspace
// snapshot. The codec validates that every required field is present but
// leaves internal consistency (dangling names) to the tree builder's
// defensive fallbacks.
package session

import (
	"encoding/json"
	"fmt"
	"os"
)

// ClusterRecord is one cluster in a snapshot. Parent is null only for
// the root cluster.
type ClusterRecord struct {
	Name   string  `json:"name"`
	Parent *string `json:"parent"`
}

// Snapshot is the round-trippable session state.
type Snapshot struct {
	AllClusters          []ClusterRecord     `json:"allClusters"`
	VisibleClusters      []string            `json:"visibleClusters"`
	VisiblePhages        []string            `json:"visiblePhages"`
	BacteriaClusters     map[string]string   `json:"bacteriaClusters"`
	ClusterBacteriaOrder map[string][]string `json:"clusterBacteriaOrder"`
	// Optional; omitted entries fall back to creation order.
	ClusterChildrenOrder map[string][]string `json:"clusterChildrenOrder,omitempty"`
}

// InvalidSessionError reports the first required field a snapshot lacks.
type InvalidSessionError struct {
	Field string
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("invalid session: missing required field %q", e.Field)
}

// requiredFields in schema order, so error messages are deterministic.
var requiredFields = []string{
	"allClusters",
	"visibleClusters",
	"visiblePhages",
	"bacteriaClusters",
	"clusterBacteriaOrder",
}

// Decode parses a snapshot and rejects it when a required field is
// absent. Empty values are fine; only missing keys are errors.
func Decode(data []byte) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return nil, &InvalidSessionError{Field: field}
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &snap, nil
}

// Encode serializes a snapshot. Nil collections are normalized to empty
// ones so the required keys are always present in the output.
func Encode(s *Snapshot) ([]byte, error) {
	out := *s
	if out.AllClusters == nil {
		out.AllClusters = []ClusterRecord{}
	}
	if out.VisibleClusters == nil {
		out.VisibleClusters = []string{}
	}
	if out.VisiblePhages == nil {
		out.VisiblePhages = []string{}
	}
	if out.BacteriaClusters == nil {
		out.BacteriaClusters = map[string]string{}
	}
	if out.ClusterBacteriaOrder == nil {
		out.ClusterBacteriaOrder = map[string][]string{}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	return data, nil
}

// LoadFile reads and decodes a snapshot from disk.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return Decode(data)
}

// SaveFile encodes a snapshot and writes it to disk.
func SaveFile(path string, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
