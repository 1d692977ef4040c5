// Package assignment tracks which cluster each bacterium belongs to and
// the declared display order of leaves within a cluster and of child
// clusters within a parent.
package assignment

// Direction selects which way a reorder moves an item.
type Direction int

const (
	Earlier Direction = iota // one position toward the start
	Later                    // one position toward the end
)

// Store owns the leaf->cluster assignment map and the two order lists.
// Order lists hold names only; existence of the named leaves and
// clusters is the caller's concern.
type Store struct {
	assignment map[string]string   // leaf name -> cluster name
	leafOrder  map[string][]string // cluster name -> ordered leaf names
	childOrder map[string][]string // cluster name -> ordered child cluster names
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		assignment: make(map[string]string),
		leafOrder:  make(map[string][]string),
		childOrder: make(map[string][]string),
	}
}

// InitCluster ensures an empty leaf-order entry exists for a new cluster.
func (s *Store) InitCluster(name string) {
	if _, ok := s.leafOrder[name]; !ok {
		s.leafOrder[name] = []string{}
	}
}

// AssignLeaf moves a leaf to a cluster. The leaf is removed from the
// order list of its previous cluster and appended to the target's list.
// The append is idempotent: assigning twice to the same cluster leaves a
// single entry.
func (s *Store) AssignLeaf(leaf, cluster string) {
	if prev, ok := s.assignment[leaf]; ok {
		s.leafOrder[prev] = remove(s.leafOrder[prev], leaf)
	}
	s.assignment[leaf] = cluster
	if !contains(s.leafOrder[cluster], leaf) {
		s.leafOrder[cluster] = append(s.leafOrder[cluster], leaf)
	}
}

// Assignment returns the cluster a leaf is assigned to.
func (s *Store) Assignment(leaf string) (string, bool) {
	c, ok := s.assignment[leaf]
	return c, ok
}

// Assignments returns a copy of the full leaf->cluster map.
func (s *Store) Assignments() map[string]string {
	out := make(map[string]string, len(s.assignment))
	for k, v := range s.assignment {
		out[k] = v
	}
	return out
}

// LeafOrder returns the ordered leaf names of a cluster.
func (s *Store) LeafOrder(cluster string) []string {
	return append([]string(nil), s.leafOrder[cluster]...)
}

// ChildOrder returns the declared child order of a cluster, nil if none
// was ever recorded (callers fall back to creation order).
func (s *Store) ChildOrder(cluster string) []string {
	if s.childOrder[cluster] == nil {
		return nil
	}
	return append([]string(nil), s.childOrder[cluster]...)
}

// RecordChild appends a child cluster to its parent's order list,
// idempotently.
func (s *Store) RecordChild(parent, child string) {
	if !contains(s.childOrder[parent], child) {
		s.childOrder[parent] = append(s.childOrder[parent], child)
	}
}

// MoveChild transfers a child between parents' order lists on reparent.
func (s *Store) MoveChild(oldParent, newParent, child string) {
	s.childOrder[oldParent] = remove(s.childOrder[oldParent], child)
	s.RecordChild(newParent, child)
}

// ReorderLeaf moves a leaf one position within its cluster's order list.
// Already at the boundary, or not in the list at all, is a no-op.
func (s *Store) ReorderLeaf(cluster, leaf string, dir Direction) {
	s.leafOrder[cluster] = shift(s.leafOrder[cluster], leaf, dir)
}

// ReorderChild moves a child cluster one position within its parent's
// order list, with the same boundary no-op rule.
func (s *Store) ReorderChild(parent, child string, dir Direction) {
	s.childOrder[parent] = shift(s.childOrder[parent], child, dir)
}

// DropClusters cascades a hierarchy delete: every leaf assigned to a
// removed cluster is reassigned to fallback, and all order entries for
// removed names are purged, including mentions inside surviving lists.
func (s *Store) DropClusters(removed map[string]bool, fallback string) {
	for leaf, cluster := range s.assignment {
		if removed[cluster] {
			s.AssignLeaf(leaf, fallback)
		}
	}
	for name := range removed {
		delete(s.leafOrder, name)
		delete(s.childOrder, name)
	}
	for parent, children := range s.childOrder {
		kept := children[:0]
		for _, c := range children {
			if !removed[c] {
				kept = append(kept, c)
			}
		}
		s.childOrder[parent] = kept
	}
}

// Replace swaps in imported state wholesale, deep-copying the inputs.
// A nil childOrder leaves sibling ordering to creation-order fallback.
func (s *Store) Replace(assignment map[string]string, leafOrder, childOrder map[string][]string) {
	s.assignment = make(map[string]string, len(assignment))
	for k, v := range assignment {
		s.assignment[k] = v
	}
	s.leafOrder = copyLists(leafOrder)
	s.childOrder = copyLists(childOrder)
}

// LeafOrders returns a deep copy of all leaf-order lists.
func (s *Store) LeafOrders() map[string][]string {
	return copyLists(s.leafOrder)
}

// ChildOrders returns a deep copy of all child-order lists.
func (s *Store) ChildOrders() map[string][]string {
	return copyLists(s.childOrder)
}

// copyLists deep-copies the lists, keeping empty entries non-nil so
// exported snapshots serialize them as [] rather than null.
func copyLists(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func shift(list []string, item string, dir Direction) []string {
	idx := -1
	for i, v := range list {
		if v == item {
			idx = i
			break
		}
	}
	if idx < 0 {
		return list
	}
	swap := idx - 1
	if dir == Later {
		swap = idx + 1
	}
	if swap < 0 || swap >= len(list) {
		return list
	}
	list[idx], list[swap] = list[swap], list[idx]
	return list
}

func remove(list []string, item string) []string {
	out := list[:0]
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
