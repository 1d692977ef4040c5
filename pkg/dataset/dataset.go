// Package dataset loads the bacteria/phage interaction matrix from JSON
// or CSV. Loading is the only ingestion step; the core never touches the
// filesystem afterwards.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/biolattice/phagegrid/pkg/model"
)

// FromJSON parses a dataset in its canonical shape:
// {"headers": [...], "leaves": [{"name": ..., "values": [...]}]}.
func FromJSON(data []byte) (*model.Dataset, error) {
	var ds model.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset JSON: %w", err)
	}
	if err := validate(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// FromCSV parses a matrix where the header row is a label column
// followed by phage names, and each data row is a bacterium name
// followed by its 0/1 interaction values.
func FromCSV(r io.Reader) (*model.Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing dataset CSV: %w", err)
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, fmt.Errorf("dataset CSV needs a header row with at least one phage column")
	}

	ds := &model.Dataset{Headers: records[0][1:]}
	for line, record := range records[1:] {
		values := make([]int, len(record)-1)
		for i, cell := range record[1:] {
			v, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, fmt.Errorf("dataset CSV line %d: value %q is not an integer", line+2, cell)
			}
			values[i] = v
		}
		ds.Leaves = append(ds.Leaves, model.Leaf{Name: record[0], Values: values})
	}
	if err := validate(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadFile loads a dataset, picking the format from the file extension.
func LoadFile(path string) (*model.Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening dataset file: %w", err)
		}
		defer f.Close()
		return FromCSV(f)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}
	return FromJSON(data)
}

func validate(ds *model.Dataset) error {
	seen := make(map[string]bool, len(ds.Leaves))
	for _, leaf := range ds.Leaves {
		if leaf.Name == "" {
			return fmt.Errorf("dataset contains a leaf with an empty name")
		}
		if seen[leaf.Name] {
			return fmt.Errorf("duplicate leaf name %q in dataset", leaf.Name)
		}
		seen[leaf.Name] = true
		if len(leaf.Values) != len(ds.Headers) {
			return fmt.Errorf("leaf %q has %d values for %d phages",
				leaf.Name, len(leaf.Values), len(ds.Headers))
		}
	}
	return nil
}
