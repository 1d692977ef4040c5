// Package workspace is the single owner of the mutable stores: the
// cluster hierarchy, the assignment store, the visibility sets and the
// loaded dataset. Every public mutation updates the stores and then
// rebuilds the render tree, layout and aggregation in full; there is no
// incremental update and no stale derived state between mutations.
package workspace

import (
	"fmt"
	"sort"
	"sync"

	"github.com/biolattice/phagegrid/pkg/aggregate"
	"github.com/biolattice/phagegrid/pkg/assignment"
	"github.com/biolattice/phagegrid/pkg/hierarchy"
	"github.com/biolattice/phagegrid/pkg/layout"
	"github.com/biolattice/phagegrid/pkg/logging"
	"github.com/biolattice/phagegrid/pkg/model"
	"github.com/biolattice/phagegrid/pkg/session"
	"github.com/biolattice/phagegrid/pkg/tree"
)

// TreeTopic is the pubsub topic carrying rebuild notifications.
const TreeTopic = "tree"

// Notifier receives an event after every rebuild. pubsub.Broker
// satisfies it; a nil notifier disables publishing.
type Notifier interface {
	Publish(topic, eventType string, data interface{}) error
}

// TreeUpdate is the payload published after each rebuild.
type TreeUpdate struct {
	Version  int     `json:"version"`
	Clusters int     `json:"clusters"`
	Leaves   int     `json:"leaves"`
	MaxX     float64 `json:"maxX"`
	MaxY     float64 `json:"maxY"`
}

// Workspace coordinates the stores and the derived values.
type Workspace struct {
	mu sync.Mutex

	hier            *hierarchy.Hierarchy
	store           *assignment.Store
	visibleClusters map[string]bool
	visiblePhages   map[string]bool
	dataset         *model.Dataset

	engine   layout.Engine
	notifier Notifier

	// Derived values, replaced wholesale on every mutation.
	version     int
	renderTree  *model.TreeNode
	extent      layout.Extent
	featureMaps map[string]aggregate.FeatureMap
}

// New creates a workspace holding only the root cluster and no dataset.
func New() *Workspace {
	w := &Workspace{
		hier:            hierarchy.New(),
		store:           assignment.NewStore(),
		visibleClusters: map[string]bool{hierarchy.RootName: true},
		visiblePhages:   make(map[string]bool),
		engine:          layout.NewEngine(),
	}
	w.store.InitCluster(hierarchy.RootName)
	w.rebuild()
	return w
}

// SetNotifier wires a publisher for rebuild events.
func (w *Workspace) SetNotifier(n Notifier) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notifier = n
}

// LoadDataset installs a dataset. Leaves without an assignment default to
// the root cluster and every phage starts visible.
func (w *Workspace) LoadDataset(ds *model.Dataset) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.dataset = ds
	for _, name := range ds.LeafNames() {
		if _, ok := w.store.Assignment(name); !ok {
			w.store.AssignLeaf(name, hierarchy.RootName)
		}
	}
	w.visiblePhages = make(map[string]bool, len(ds.Headers))
	for _, phage := range ds.Headers {
		w.visiblePhages[phage] = true
	}
	logging.Info("dataset loaded", "leaves", len(ds.Leaves), "phages", len(ds.Headers))
	w.rebuild()
}

// AddCluster creates a cluster, initializes its order entry, records it
// under its parent and marks it visible. An empty parent means the root.
func (w *Workspace) AddCluster(name, parent string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if parent == "" {
		parent = hierarchy.RootName
	}
	if err := w.hier.AddCluster(name, parent); err != nil {
		return err
	}
	w.store.InitCluster(name)
	w.store.RecordChild(parent, name)
	w.visibleClusters[name] = true
	w.rebuild()
	return nil
}

// DeleteCluster removes a cluster and its whole subtree, reassigning the
// orphaned leaves to the root and purging order and visibility entries.
func (w *Workspace) DeleteCluster(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	removed, err := w.hier.DeleteCluster(name)
	if err != nil {
		return err
	}
	w.store.DropClusters(removed, hierarchy.RootName)
	for victim := range removed {
		delete(w.visibleClusters, victim)
	}
	logging.Info("cluster deleted", "name", name, "removed", len(removed))
	w.rebuild()
	return nil
}

// SetParent reparents a cluster and moves its child-order entry.
func (w *Workspace) SetParent(name, newParent string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	oldParent, _ := w.hier.Parent(name)
	if err := w.hier.SetParent(name, newParent); err != nil {
		return err
	}
	w.store.MoveChild(oldParent, newParent, name)
	w.rebuild()
	return nil
}

// AssignLeaf moves a bacterium to a cluster.
func (w *Workspace) AssignLeaf(leaf, cluster string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dataset == nil || w.dataset.Leaf(leaf) == nil {
		return fmt.Errorf("unknown bacterium %q", leaf)
	}
	if !w.hier.Exists(cluster) {
		return fmt.Errorf("unknown cluster %q", cluster)
	}
	w.store.AssignLeaf(leaf, cluster)
	w.rebuild()
	return nil
}

// ReorderLeaf moves a bacterium one slot within its cluster's order.
func (w *Workspace) ReorderLeaf(cluster, leaf string, dir assignment.Direction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.store.ReorderLeaf(cluster, leaf, dir)
	w.rebuild()
}

// ReorderChild moves a child cluster one slot within its parent's order.
func (w *Workspace) ReorderChild(parent, child string, dir assignment.Direction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.store.ReorderChild(parent, child, dir)
	w.rebuild()
}

// SetClusterVisible toggles a cluster's eligibility to render. Hiding a
// cluster hides everything reachable only through it.
func (w *Workspace) SetClusterVisible(name string, visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if visible {
		w.visibleClusters[name] = true
	} else {
		delete(w.visibleClusters, name)
	}
	w.rebuild()
}

// SetPhageVisible toggles a phage column in query responses.
func (w *Workspace) SetPhageVisible(name string, visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if visible {
		w.visiblePhages[name] = true
	} else {
		delete(w.visiblePhages, name)
	}
	w.rebuild()
}

// rebuild recomputes every derived value. Callers hold the lock.
func (w *Workspace) rebuild() {
	var headers []string
	if w.dataset != nil {
		headers = w.dataset.Headers
	}
	w.renderTree = tree.Build(w.dataset, w.hier, w.store, w.visibleClusters)
	w.extent = w.engine.Apply(w.renderTree)
	w.featureMaps = aggregate.FeatureMaps(w.renderTree, headers)
	w.version++

	if w.notifier != nil {
		update := TreeUpdate{
			Version:  w.version,
			Clusters: w.hier.Len(),
			MaxX:     w.extent.MaxX,
			MaxY:     w.extent.MaxY,
		}
		if w.renderTree != nil {
			update.Leaves = len(w.renderTree.LeafNames())
		}
		if err := w.notifier.Publish(TreeTopic, "rebuilt", update); err != nil {
			logging.Warn("publishing tree update", "error", err)
		}
	}
}

// Tree returns the current render tree, nil before a dataset is loaded.
func (w *Workspace) Tree() *model.TreeNode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.renderTree
}

// Extent returns the canvas extent of the current layout.
func (w *Workspace) Extent() layout.Extent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.extent
}

// Version returns the rebuild counter.
func (w *Workspace) Version() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version
}

// Dataset returns the loaded dataset, nil if none.
func (w *Workspace) Dataset() *model.Dataset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dataset
}

// Clusters returns all clusters in creation order.
func (w *Workspace) Clusters() []hierarchy.Cluster {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hier.Clusters()
}

// Query runs an intersection query over the current feature maps. In
// cluster mode, phages hidden by the visibility set are dropped from the
// result keys.
func (w *Workspace) Query(selection []string, mode aggregate.Mode) map[string][]model.Contributor {
	w.mu.Lock()
	defer w.mu.Unlock()

	result := aggregate.Query(w.featureMaps, selection, mode)
	if mode == aggregate.ByCluster {
		for phage := range result {
			if !w.visiblePhages[phage] {
				delete(result, phage)
			}
		}
	}
	return result
}

// FeatureMap returns one cluster's aggregated phage map.
func (w *Workspace) FeatureMap(cluster string) aggregate.FeatureMap {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.featureMaps[cluster]
}

// Export captures the stores as a session snapshot.
func (w *Workspace) Export() *session.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := &session.Snapshot{
		BacteriaClusters:     w.store.Assignments(),
		ClusterBacteriaOrder: w.store.LeafOrders(),
	}
	for _, c := range w.hier.Clusters() {
		record := session.ClusterRecord{Name: c.Name}
		if c.Parent != "" {
			parent := c.Parent
			record.Parent = &parent
		}
		snap.AllClusters = append(snap.AllClusters, record)
		if w.visibleClusters[c.Name] {
			snap.VisibleClusters = append(snap.VisibleClusters, c.Name)
		}
	}
	if w.dataset != nil {
		for _, phage := range w.dataset.Headers {
			if w.visiblePhages[phage] {
				snap.VisiblePhages = append(snap.VisiblePhages, phage)
			}
		}
	} else {
		// No dataset means no header order to follow; emit the stored
		// set sorted so the snapshot stays deterministic.
		for phage := range w.visiblePhages {
			snap.VisiblePhages = append(snap.VisiblePhages, phage)
		}
		sort.Strings(snap.VisiblePhages)
	}
	if childOrders := w.store.ChildOrders(); len(childOrders) > 0 {
		snap.ClusterChildrenOrder = childOrders
	}
	return snap
}

// Import replaces the stores with a snapshot's state. Dangling names are
// tolerated; the tree builder's fallbacks absorb them. Dataset leaves
// the snapshot does not assign default to the root cluster.
func (w *Workspace) Import(snap *session.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hier := hierarchy.New()
	for _, record := range snap.AllClusters {
		if record.Name == hierarchy.RootName {
			continue
		}
		parent := ""
		if record.Parent != nil {
			parent = *record.Parent
		}
		if err := hier.AddCluster(record.Name, parent); err != nil {
			// Duplicate or self-parented entries in a hand-edited file.
			logging.Warn("skipping invalid session cluster", "name", record.Name, "error", err)
		}
	}
	w.hier = hier
	w.store.Replace(snap.BacteriaClusters, snap.ClusterBacteriaOrder, snap.ClusterChildrenOrder)
	for _, c := range w.hier.Clusters() {
		w.store.InitCluster(c.Name)
	}

	w.visibleClusters = make(map[string]bool, len(snap.VisibleClusters))
	for _, name := range snap.VisibleClusters {
		w.visibleClusters[name] = true
	}
	w.visiblePhages = make(map[string]bool, len(snap.VisiblePhages))
	for _, name := range snap.VisiblePhages {
		w.visiblePhages[name] = true
	}

	if w.dataset != nil {
		for _, name := range w.dataset.LeafNames() {
			if _, ok := w.store.Assignment(name); !ok {
				w.store.AssignLeaf(name, hierarchy.RootName)
			}
		}
	}
	logging.Info("session imported", "clusters", w.hier.Len())
	w.rebuild()
	return nil
}
