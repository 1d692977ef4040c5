// Package layout assigns 2D coordinates and subtree heights to a render
// tree. Two recursive passes: a post-order height pass that stores each
// branch's subtree height on the node, then a pre-order position pass
// that centers every branch vertically on its subtree.
package layout

import "github.com/biolattice/phagegrid/pkg/model"

// Layout constants. LeafSpacing is the vertical slot one bacterium
// occupies, ClusterGap the gap inserted between sibling groups when a
// level mixes leaves and sub-clusters, LevelWidth the horizontal
// increment per depth level.
const (
	DefaultLeafSpacing = 22.0
	DefaultClusterGap  = 14.0
	DefaultLevelWidth  = 140.0
)

// Engine computes layout with its configured spacing constants.
type Engine struct {
	LeafSpacing float64
	ClusterGap  float64
	LevelWidth  float64
}

// NewEngine returns an engine with the default spacing constants.
func NewEngine() Engine {
	return Engine{
		LeafSpacing: DefaultLeafSpacing,
		ClusterGap:  DefaultClusterGap,
		LevelWidth:  DefaultLevelWidth,
	}
}

// Extent is the canvas size needed to draw a positioned tree.
type Extent struct {
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Apply runs both passes over the tree and returns the canvas extent.
// A nil tree yields a zero extent.
func (e Engine) Apply(top *model.TreeNode) Extent {
	if top == nil {
		return Extent{}
	}
	e.computeHeight(top)
	e.assignPositions(top, 0, 0)

	var ext Extent
	top.Walk(func(n *model.TreeNode) {
		if n.X > ext.MaxX {
			ext.MaxX = n.X
		}
		if n.Y > ext.MaxY {
			ext.MaxY = n.Y
		}
	})
	return ext
}

// computeHeight fills in Height for the node and every descendant.
// A leaf takes one leaf slot. A branch sums its leaf block, a gap when
// it holds both leaves and sub-branches, and its children's heights with
// one gap between consecutive children. An empty branch still takes one
// leaf slot so it stays drawable.
func (e Engine) computeHeight(n *model.TreeNode) float64 {
	if n.Kind == model.KindLeaf {
		n.Height = e.LeafSpacing
		return n.Height
	}

	leaves, branches := split(n)
	h := float64(len(leaves)) * e.LeafSpacing
	if len(leaves) > 0 && len(branches) > 0 {
		h += e.ClusterGap
	}
	for i, child := range branches {
		h += e.computeHeight(child)
		if i < len(branches)-1 {
			h += e.ClusterGap
		}
	}
	if len(leaves) == 0 && len(branches) == 0 {
		h = e.LeafSpacing
	}
	n.Height = h
	return h
}

// assignPositions places the node and its subtree. A leaf sits at
// (x, startY); a branch sits at (x, startY+height/2), with its leaf
// block first and each child branch laid out below the previous one.
func (e Engine) assignPositions(n *model.TreeNode, startY, x float64) {
	if n.Kind == model.KindLeaf {
		n.X = x
		n.Y = startY
		return
	}

	n.X = x
	n.Y = startY + n.Height/2

	leaves, branches := split(n)
	y := startY
	for _, leaf := range leaves {
		e.assignPositions(leaf, y, x+e.LevelWidth)
		y += e.LeafSpacing
	}
	if len(leaves) > 0 && len(branches) > 0 {
		y += e.ClusterGap
	}
	for i, child := range branches {
		e.assignPositions(child, y, x+e.LevelWidth)
		y += child.Height
		if i < len(branches)-1 {
			y += e.ClusterGap
		}
	}
}

func split(n *model.TreeNode) (leaves, branches []*model.TreeNode) {
	for _, c := range n.Children {
		if c.Kind == model.KindLeaf {
			leaves = append(leaves, c)
		} else {
			branches = append(branches, c)
		}
	}
	return leaves, branches
}
