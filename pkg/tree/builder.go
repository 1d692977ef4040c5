// Package tree derives the renderable tree from the cluster hierarchy,
// the assignment store, the visibility set and the loaded dataset. The
// result is a disposable per-pass value: it is rebuilt in full after
// every mutation and never mutated in place.
package tree

import (
	"github.com/biolattice/phagegrid/pkg/assignment"
	"github.com/biolattice/phagegrid/pkg/hierarchy"
	"github.com/biolattice/phagegrid/pkg/model"
)

// TopName is the synthetic node wrapping all root-level branches so the
// layout and aggregation passes see a single tree.
const TopName = "Bacteria"

// Build combines the stores into one render tree. It returns nil when no
// dataset is loaded. Inconsistent references are corrected silently
// rather than rejected: a leaf assigned to an unknown cluster lands in
// the root, a cluster with an unknown parent becomes root-level, and a
// leaf missing from its cluster's order list is appended after the
// ordered ones in dataset order.
func Build(ds *model.Dataset, h *hierarchy.Hierarchy, store *assignment.Store, visible map[string]bool) *model.TreeNode {
	if ds == nil {
		return nil
	}

	// One branch node per cluster, initially childless.
	branches := make(map[string]*model.TreeNode)
	for _, c := range h.Clusters() {
		branches[c.Name] = &model.TreeNode{Name: c.Name, Kind: model.KindBranch}
	}

	// Stage each assigned leaf under its resolved cluster.
	staged := make(map[string]map[string]bool) // cluster -> leaf name set
	for leaf, cluster := range store.Assignments() {
		if ds.Leaf(leaf) == nil {
			continue
		}
		if !h.Exists(cluster) {
			cluster = hierarchy.RootName
		}
		if staged[cluster] == nil {
			staged[cluster] = make(map[string]bool)
		}
		staged[cluster][leaf] = true
	}

	// Emit staged leaves per cluster: declared order first, then any
	// leaf the order list misses, in dataset order.
	for cluster, set := range staged {
		branch := branches[cluster]
		emitted := make(map[string]bool, len(set))
		for _, name := range store.LeafOrder(cluster) {
			if set[name] && !emitted[name] {
				branch.Children = append(branch.Children, leafNode(ds.Leaf(name), cluster))
				emitted[name] = true
			}
		}
		for i := range ds.Leaves {
			name := ds.Leaves[i].Name
			if set[name] && !emitted[name] {
				branch.Children = append(branch.Children, leafNode(&ds.Leaves[i], cluster))
				emitted[name] = true
			}
		}
	}

	// Link branches to their parents; unknown parents fall back to the
	// top level. Siblings follow the declared child order where one
	// exists, creation order otherwise.
	var topLevel []string
	for _, c := range h.Clusters() {
		if c.Parent == "" || !h.Exists(c.Parent) {
			topLevel = append(topLevel, c.Name)
		}
	}
	for _, c := range h.Clusters() {
		branch := branches[c.Name]
		for _, child := range orderChildren(h.Children(c.Name), store.ChildOrder(c.Name)) {
			branch.Children = append(branch.Children, branches[child])
		}
	}

	// Prune hidden branches and wrap the survivors.
	top := &model.TreeNode{Name: TopName, Kind: model.KindBranch}
	for _, name := range topLevel {
		if kept := prune(branches[name], visible); kept != nil {
			top.Children = append(top.Children, kept)
		}
	}
	return top
}

func leafNode(leaf *model.Leaf, cluster string) *model.TreeNode {
	return &model.TreeNode{
		Name:    leaf.Name,
		Kind:    model.KindLeaf,
		Values:  leaf.Values,
		Cluster: cluster,
	}
}

// orderChildren sorts actual children by the declared order list; names
// the list misses keep their creation-order position after the listed
// ones. Stale list entries naming non-children are ignored.
func orderChildren(children, declared []string) []string {
	if len(declared) == 0 {
		return children
	}
	isChild := make(map[string]bool, len(children))
	for _, c := range children {
		isChild[c] = true
	}
	out := make([]string, 0, len(children))
	seen := make(map[string]bool, len(children))
	for _, name := range declared {
		if isChild[name] && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	for _, name := range children {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

// prune drops a branch, and everything beneath it, when the branch is
// not in the visibility set. Leaves pass through untouched; they are
// only ever removed with their containing branch chain.
func prune(node *model.TreeNode, visible map[string]bool) *model.TreeNode {
	if !visible[node.Name] {
		return nil
	}
	out := &model.TreeNode{Name: node.Name, Kind: model.KindBranch}
	for _, child := range node.Children {
		if child.Kind == model.KindLeaf {
			out.Children = append(out.Children, child)
			continue
		}
		if kept := prune(child, visible); kept != nil {
			out.Children = append(out.Children, kept)
		}
	}
	return out
}
