package hierarchy

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// RootName is the mandatory top-level cluster. It always exists and can
// never be deleted or reparented.
const RootName = "Root"

// Cluster is one named group node. Parent is the name of the parent
// cluster; it is empty only for the root.
type Cluster struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// Hierarchy owns the set of clusters and their parent edges and enforces
// the structural invariants: unique names, a single protected root, and
// an acyclic parent graph.
//
// Clusters are kept in a flat name-keyed table with parent stored as a
// name reference; a gonum directed graph (edges parent -> child) mirrors
// the table for child and descendant traversal.
type Hierarchy struct {
	graph  *simple.DirectedGraph
	ids    map[string]int64
	names  map[int64]string
	parent map[string]string // cluster name -> parent name ("" for root-level)
	order  []string          // creation order
	nextID int64
}

// New creates a hierarchy containing only the root cluster.
func New() *Hierarchy {
	h := &Hierarchy{
		graph:  simple.NewDirectedGraph(),
		ids:    make(map[string]int64),
		names:  make(map[int64]string),
		parent: make(map[string]string),
	}
	h.insert(RootName, "")
	return h
}

// insert adds a cluster node unconditionally. Callers check for duplicates.
func (h *Hierarchy) insert(name, parent string) {
	id := h.nextID
	h.nextID++
	h.ids[name] = id
	h.names[id] = name
	h.parent[name] = parent
	h.order = append(h.order, name)
	h.graph.AddNode(simple.Node(id))
	h.link(name, parent)
	// Session files list clusters in arbitrary order, so a child can be
	// recorded before its parent. Attach any such children now.
	for child, p := range h.parent {
		if p == name && child != name {
			h.link(child, name)
		}
	}
}

// link sets the parent edge in the mirror graph, if the parent exists.
// A dangling parent name leaves the node edge-less; the tree builder
// treats such clusters as root-level.
func (h *Hierarchy) link(name, parent string) {
	childID, ok := h.ids[name]
	if !ok {
		return
	}
	if parentID, ok := h.ids[parent]; ok && parent != name {
		h.graph.SetEdge(h.graph.NewEdge(simple.Node(parentID), simple.Node(childID)))
	}
}

// unlink removes the current parent edge of name, if any.
func (h *Hierarchy) unlink(name string) {
	childID, ok := h.ids[name]
	if !ok {
		return
	}
	if parentID, ok := h.ids[h.parent[name]]; ok {
		h.graph.RemoveEdge(parentID, childID)
	}
}

// AddCluster inserts a new cluster under parent. A parent that does
// not exist yet is tolerated: the child renders root-level until the
// parent is added, at which point the edge attaches. Naming itself as
// parent is a cycle and is rejected.
func (h *Hierarchy) AddCluster(name, parent string) error {
	if _, exists := h.ids[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	if parent == name {
		return &CycleError{Name: name, NewParent: parent}
	}
	h.insert(name, parent)
	return nil
}

// DeleteCluster removes name and every transitive descendant. It returns
// the inclusive set of removed names so the caller can cascade cleanup
// (reassign orphaned leaves to the root, purge order and visibility
// entries).
func (h *Hierarchy) DeleteCluster(name string) (map[string]bool, error) {
	if name == RootName {
		return nil, &ProtectedNodeError{Name: name}
	}
	if _, exists := h.ids[name]; !exists {
		return nil, fmt.Errorf("unknown cluster %q", name)
	}
	removed := h.Descendants(name)
	for victim := range removed {
		id := h.ids[victim]
		h.graph.RemoveNode(id)
		delete(h.ids, victim)
		delete(h.names, id)
		delete(h.parent, victim)
	}
	kept := h.order[:0]
	for _, n := range h.order {
		if !removed[n] {
			kept = append(kept, n)
		}
	}
	h.order = kept
	return removed, nil
}

// SetParent moves name under newParent. It rejects moves of the root and
// moves that would create a cycle: newParent == name, or name found on
// newParent's ancestor chain. The walk is bounded by the cluster count
// so it terminates even on an inconsistent table.
func (h *Hierarchy) SetParent(name, newParent string) error {
	if name == RootName {
		return &ProtectedNodeError{Name: name}
	}
	if _, exists := h.ids[name]; !exists {
		return fmt.Errorf("unknown cluster %q", name)
	}
	if _, exists := h.ids[newParent]; !exists {
		return fmt.Errorf("unknown parent cluster %q", newParent)
	}
	if newParent == name {
		return &CycleError{Name: name, NewParent: newParent}
	}
	ancestor := newParent
	for steps := 0; steps <= len(h.parent); steps++ {
		next, ok := h.parent[ancestor]
		if !ok || next == "" {
			break
		}
		if next == name {
			return &CycleError{Name: name, NewParent: newParent}
		}
		ancestor = next
	}
	h.unlink(name)
	h.parent[name] = newParent
	h.link(name, newParent)
	return nil
}

// Exists reports whether a cluster with the given name is present.
func (h *Hierarchy) Exists(name string) bool {
	_, ok := h.ids[name]
	return ok
}

// Parent returns the recorded parent of name and whether name exists.
func (h *Hierarchy) Parent(name string) (string, bool) {
	p, ok := h.parent[name]
	return p, ok
}

// Children returns the direct children of name in creation order.
func (h *Hierarchy) Children(name string) []string {
	id, ok := h.ids[name]
	if !ok {
		return nil
	}
	childSet := make(map[string]bool)
	it := h.graph.From(id)
	for it.Next() {
		childSet[h.names[it.Node().ID()]] = true
	}
	var children []string
	for _, n := range h.order {
		if childSet[n] {
			children = append(children, n)
		}
	}
	return children
}

// Descendants returns the inclusive transitive descendant set of name.
func (h *Hierarchy) Descendants(name string) map[string]bool {
	result := make(map[string]bool)
	id, ok := h.ids[name]
	if !ok {
		return result
	}
	result[name] = true
	bfs := traverse.BreadthFirst{}
	bfs.Walk(h.graph, simple.Node(id), func(n graph.Node, _ int) bool {
		result[h.names[n.ID()]] = true
		return false
	})
	return result
}

// Clusters returns all clusters in creation order.
func (h *Hierarchy) Clusters() []Cluster {
	clusters := make([]Cluster, 0, len(h.order))
	for _, name := range h.order {
		clusters = append(clusters, Cluster{Name: name, Parent: h.parent[name]})
	}
	return clusters
}

// Len returns the number of clusters, including the root.
func (h *Hierarchy) Len() int {
	return len(h.order)
}
