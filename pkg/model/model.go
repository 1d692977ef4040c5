package model

// Leaf represents one bacterium with its interaction vector.
// Values are 0/1 flags aligned positionally to the dataset's phage headers.
// Leaves are immutable once loaded; only their cluster assignment changes.
type Leaf struct {
	Name   string `json:"name"`
	Values []int  `json:"values"`
}

// Interacts reports whether the leaf interacts with the phage at index i.
// Out-of-range indices count as no interaction.
func (l *Leaf) Interacts(i int) bool {
	return i >= 0 && i < len(l.Values) && l.Values[i] != 0
}

// Dataset is the loaded bacteria/phage interaction matrix.
// Headers lists the phage names; every leaf's Values slice is aligned to it.
type Dataset struct {
	Headers []string `json:"headers"`
	Leaves  []Leaf   `json:"leaves"`
}

// Leaf returns the leaf with the given name, or nil if unknown.
func (d *Dataset) Leaf(name string) *Leaf {
	for i := range d.Leaves {
		if d.Leaves[i].Name == name {
			return &d.Leaves[i]
		}
	}
	return nil
}

// FeatureIndex returns the column index of the named phage, or -1.
func (d *Dataset) FeatureIndex(name string) int {
	for i, h := range d.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// LeafNames returns all leaf names in dataset order.
func (d *Dataset) LeafNames() []string {
	names := make([]string, len(d.Leaves))
	for i := range d.Leaves {
		names[i] = d.Leaves[i].Name
	}
	return names
}
