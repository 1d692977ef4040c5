// Package aggregate answers cross-cluster and cross-phage intersection
// questions over a built render tree: which phages are common to a set
// of clusters, which clusters carry a set of phages, and which bacteria
// contribute the interactions.
package aggregate

import "github.com/biolattice/phagegrid/pkg/model"

// Mode selects the direction of an intersection query.
type Mode string

const (
	ByCluster Mode = "cluster" // selection names clusters, result keyed by phage
	ByPhage   Mode = "phage"   // selection names phages, result keyed by cluster
)

// FeatureMap records, for one cluster, every phage present somewhere in
// its subtree and the contributors carrying it. A contributor names the
// bacterium and its immediate cluster, not the ancestor being aggregated.
type FeatureMap map[string][]model.Contributor

// FeatureMaps walks the tree once, post-order, and returns the feature
// map of every cluster branch. The node passed in is the synthetic top
// wrapper; it is not a cluster and gets no entry. An ancestor's map is
// the concatenation of its children's maps plus its own direct leaves'
// positive phages; no de-duplication happens at this stage.
func FeatureMaps(top *model.TreeNode, headers []string) map[string]FeatureMap {
	out := make(map[string]FeatureMap)
	if top == nil {
		return out
	}
	for _, child := range top.Children {
		if child.Kind == model.KindBranch {
			collect(child, headers, out)
		}
	}
	return out
}

func collect(n *model.TreeNode, headers []string, out map[string]FeatureMap) FeatureMap {
	fm := make(FeatureMap)
	for _, child := range n.Children {
		if child.Kind == model.KindLeaf {
			for i, v := range child.Values {
				if v != 0 && i < len(headers) {
					fm[headers[i]] = append(fm[headers[i]], model.Contributor{
						Leaf:    child.Name,
						Cluster: child.Cluster,
					})
				}
			}
			continue
		}
		for phage, contribs := range collect(child, headers, out) {
			fm[phage] = append(fm[phage], contribs...)
		}
	}
	out[n.Name] = fm
	return fm
}

// Query computes the cross-selection intersection. In cluster mode the
// result maps each phage present in every selected cluster to the
// de-duplicated contributors across those clusters; in phage mode it
// maps each cluster containing every selected phage to the contributors
// across those phages. An empty selection yields an empty result.
func Query(maps map[string]FeatureMap, selection []string, mode Mode) map[string][]model.Contributor {
	result := make(map[string][]model.Contributor)
	if len(selection) == 0 {
		return result
	}

	switch mode {
	case ByPhage:
		for cluster, fm := range maps {
			if !hasAll(fm, selection) {
				continue
			}
			var contribs []model.Contributor
			for _, phage := range selection {
				contribs = append(contribs, fm[phage]...)
			}
			result[cluster] = dedupe(contribs)
		}
	default: // ByCluster
		common := phagesOf(maps[selection[0]])
		for _, cluster := range selection[1:] {
			common = intersect(common, maps[cluster])
		}
		for phage := range common {
			var contribs []model.Contributor
			for _, cluster := range selection {
				contribs = append(contribs, maps[cluster][phage]...)
			}
			result[phage] = dedupe(contribs)
		}
	}
	return result
}

func phagesOf(fm FeatureMap) map[string]bool {
	set := make(map[string]bool, len(fm))
	for phage := range fm {
		set[phage] = true
	}
	return set
}

func intersect(set map[string]bool, fm FeatureMap) map[string]bool {
	out := make(map[string]bool)
	for phage := range set {
		if _, ok := fm[phage]; ok {
			out[phage] = true
		}
	}
	return out
}

func hasAll(fm FeatureMap, phages []string) bool {
	for _, p := range phages {
		if _, ok := fm[p]; !ok {
			return false
		}
	}
	return true
}

// dedupe drops repeated (leaf, cluster) pairs, keeping first-seen order.
func dedupe(contribs []model.Contributor) []model.Contributor {
	seen := make(map[model.Contributor]bool, len(contribs))
	out := make([]model.Contributor, 0, len(contribs))
	for _, c := range contribs {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
