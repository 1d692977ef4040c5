package model

// NodeKind distinguishes the two render-tree node types.
type NodeKind string

const (
	KindBranch NodeKind = "branch" // a cluster
	KindLeaf   NodeKind = "leaf"   // a bacterium
)

// TreeNode is one node of the derived render tree. The tree is rebuilt
// wholesale after every mutation and never mutated in place.
//
// Branch nodes carry Children; leaf nodes carry Values and Cluster (the
// immediate cluster the leaf is assigned to). Layout fields are zero
// until the layout engine has run over the tree.
type TreeNode struct {
	Name     string      `json:"name"`
	Kind     NodeKind    `json:"kind"`
	Children []*TreeNode `json:"children,omitempty"`
	Values   []int       `json:"values,omitempty"`
	Cluster  string      `json:"cluster,omitempty"`

	// Layout results
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
}

// IsBranch reports whether the node is a cluster node.
func (n *TreeNode) IsBranch() bool {
	return n.Kind == KindBranch
}

// Walk visits the node and every descendant in pre-order.
func (n *TreeNode) Walk(visit func(*TreeNode)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// LeafNames returns the names of all leaf nodes in the subtree, in
// render order.
func (n *TreeNode) LeafNames() []string {
	var names []string
	n.Walk(func(t *TreeNode) {
		if t.Kind == KindLeaf {
			names = append(names, t.Name)
		}
	})
	return names
}

// Contributor explains why a phage is marked present for a cluster: the
// leaf carrying the interaction and the cluster it is directly assigned to.
type Contributor struct {
	Leaf    string `json:"leaf"`
	Cluster string `json:"cluster"`
}
