package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/biolattice/phagegrid/pkg/layout"
	"github.com/biolattice/phagegrid/pkg/model"
)

// PrintTreeReport prints a colorized summary of the built tree.
func PrintTreeReport(ds *model.Dataset, top *model.TreeNode, ext layout.Extent) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("PhageGrid - Cluster Report")
	bold.Println("==========================")

	if ds == nil {
		yellow.Println("No dataset loaded")
		return
	}
	fmt.Printf("Bacteria: %d\n", len(ds.Leaves))
	fmt.Printf("Phages:   %d\n", len(ds.Headers))

	if top == nil {
		yellow.Println("No tree built")
		return
	}
	fmt.Println()
	printNode(top, 0, green, cyan)
	fmt.Println()
	fmt.Printf("Canvas extent: %.0fx%.0f\n", ext.MaxX, ext.MaxY)
}

func printNode(n *model.TreeNode, depth int, branch, leaf *color.Color) {
	indent := strings.Repeat("  ", depth)
	if n.IsBranch() {
		branch.Printf("%s%s/\n", indent, n.Name)
		for _, c := range n.Children {
			printNode(c, depth+1, branch, leaf)
		}
		return
	}
	positive := 0
	for _, v := range n.Values {
		if v != 0 {
			positive++
		}
	}
	leaf.Printf("%s%s", indent, n.Name)
	fmt.Printf(" (%d/%d phages)\n", positive, len(n.Values))
}
