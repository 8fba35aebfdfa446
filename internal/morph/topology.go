// Package morph builds the flattened compartment indexing for branched
// neuron morphologies: global compartment offsets, per-level branch
// groupings and parent/child bookkeeping used by the implicit solver.
package morph

import (
	"fmt"

	"github.com/mvelten/cabletree/internal/cable"
)

// DefaultMaxKids is the highest branch fan-out accepted by default.
const DefaultMaxKids = 4

// CellSpec describes one cell as a parent array over branches plus a
// per-branch compartment count. Parents[i] is the index of branch i's
// parent within the cell, or -1 for the root.
type CellSpec struct {
	Parents []int
	Comps   []int
}

// Topology is the immutable flattened indexing of a set of cells.
// Branches are numbered globally in cell order, then input order within
// each cell; compartments are contiguous per branch in the same order.
type Topology struct {
	MaxKids     int
	NumCells    int
	NumBranches int
	NumComps    int

	// CellOffset[c] is the global index of cell c's first branch;
	// len is NumCells+1 so CellOffset[c+1] bounds the cell.
	CellOffset []int

	// Parents maps global branch index to global parent branch, -1 for roots.
	Parents []int

	// CompOffset[b] is the global index of branch b's first compartment;
	// len is NumBranches+1.
	CompOffset []int

	// Levels groups global branch indices by topological depth.
	// Levels[0] holds the root branches; the grouping is fixed at build
	// time so level-parallel passes execute in a repeatable order.
	Levels [][]int

	// Children[b] lists branch b's children in input order.
	Children [][]int

	// KidPos[b] is branch b's position among its siblings, 0 for roots.
	KidPos []int

	// Depth[b] is branch b's topological level.
	Depth []int

	// CellOf[b] is the cell owning global branch b.
	CellOf []int
}

// Build validates the per-cell parent arrays and derives the flattened
// indexing. It fails with a *cable.TopologyError on an out-of-range
// parent, a cycle, a missing or duplicated root, a branch without
// compartments, or fan-out above maxKids. maxKids <= 0 selects
// DefaultMaxKids.
func Build(cells []CellSpec, maxKids int) (*Topology, error) {
	if maxKids <= 0 {
		maxKids = DefaultMaxKids
	}
	if len(cells) == 0 {
		return nil, &cable.TopologyError{Cell: -1, Branch: -1, Message: "no cells"}
	}

	t := &Topology{
		MaxKids:    maxKids,
		NumCells:   len(cells),
		CellOffset: make([]int, len(cells)+1),
	}

	for c, cell := range cells {
		if len(cell.Parents) == 0 {
			return nil, &cable.TopologyError{Cell: c, Branch: -1, Message: "cell has no branches"}
		}
		if len(cell.Comps) != len(cell.Parents) {
			return nil, &cable.TopologyError{Cell: c, Branch: -1,
				Message: fmt.Sprintf("compartment counts (%d) do not match branch count (%d)", len(cell.Comps), len(cell.Parents))}
		}
		t.CellOffset[c+1] = t.CellOffset[c] + len(cell.Parents)
	}
	t.NumBranches = t.CellOffset[len(cells)]

	t.Parents = make([]int, t.NumBranches)
	t.CompOffset = make([]int, t.NumBranches+1)
	t.Children = make([][]int, t.NumBranches)
	t.KidPos = make([]int, t.NumBranches)
	t.Depth = make([]int, t.NumBranches)
	t.CellOf = make([]int, t.NumBranches)

	for c, cell := range cells {
		off := t.CellOffset[c]
		roots := 0
		for i, p := range cell.Parents {
			b := off + i
			t.CellOf[b] = c
			if cell.Comps[i] < 1 {
				return nil, &cable.TopologyError{Cell: c, Branch: i, Message: "branch has no compartments"}
			}
			t.CompOffset[b+1] = t.CompOffset[b] + cell.Comps[i]
			switch {
			case p == -1:
				roots++
				t.Parents[b] = -1
			case p < 0 || p >= len(cell.Parents):
				return nil, &cable.TopologyError{Cell: c, Branch: i,
					Message: fmt.Sprintf("parent index %d out of range [0, %d)", p, len(cell.Parents))}
			case p == i:
				return nil, &cable.TopologyError{Cell: c, Branch: i, Message: "branch is its own parent"}
			default:
				t.Parents[b] = off + p
			}
		}
		if roots != 1 {
			return nil, &cable.TopologyError{Cell: c, Branch: -1,
				Message: fmt.Sprintf("expected exactly one root branch, found %d", roots)}
		}
	}
	t.NumComps = t.CompOffset[t.NumBranches]

	if err := t.computeDepths(); err != nil {
		return nil, err
	}

	for b := 0; b < t.NumBranches; b++ {
		p := t.Parents[b]
		if p < 0 {
			continue
		}
		t.KidPos[b] = len(t.Children[p])
		t.Children[p] = append(t.Children[p], b)
		if len(t.Children[p]) > maxKids {
			return nil, &cable.TopologyError{Cell: t.CellOf[p], Branch: p - t.CellOffset[t.CellOf[p]],
				Message: fmt.Sprintf("more than %d child branches", maxKids)}
		}
	}

	maxDepth := 0
	for _, d := range t.Depth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	t.Levels = make([][]int, maxDepth+1)
	for b := 0; b < t.NumBranches; b++ {
		t.Levels[t.Depth[b]] = append(t.Levels[t.Depth[b]], b)
	}

	return t, nil
}

// computeDepths walks parent pointers iteratively, detecting cycles by
// bounding the walk at the branch count.
func (t *Topology) computeDepths() error {
	for b := 0; b < t.NumBranches; b++ {
		depth := 0
		p := t.Parents[b]
		for p >= 0 {
			depth++
			if depth > t.NumBranches {
				return &cable.TopologyError{Cell: t.CellOf[b], Branch: b - t.CellOffset[t.CellOf[b]],
					Message: "cycle in parent pointers"}
			}
			p = t.Parents[p]
		}
		t.Depth[b] = depth
	}
	return nil
}

// GlobalBranch translates a (cell, local branch) pair to a global branch
// index.
func (t *Topology) GlobalBranch(cell, branch int) (int, error) {
	if cell < 0 || cell >= t.NumCells {
		return 0, &cable.TopologyError{Cell: cell, Branch: -1, Message: "cell index out of range"}
	}
	n := t.CellOffset[cell+1] - t.CellOffset[cell]
	if branch < 0 || branch >= n {
		return 0, &cable.TopologyError{Cell: cell, Branch: branch, Message: "branch index out of range"}
	}
	return t.CellOffset[cell] + branch, nil
}

// CompIndex translates a (cell, branch, compartment) triple to a global
// compartment index.
func (t *Topology) CompIndex(cell, branch, comp int) (int, error) {
	b, err := t.GlobalBranch(cell, branch)
	if err != nil {
		return 0, err
	}
	if comp < 0 || comp >= t.CompOffset[b+1]-t.CompOffset[b] {
		return 0, &cable.TopologyError{Cell: cell, Branch: branch,
			Message: fmt.Sprintf("compartment index %d out of range", comp)}
	}
	return t.CompOffset[b] + comp, nil
}

// BranchComps returns the half-open global compartment range [lo, hi) of
// branch b.
func (t *Topology) BranchComps(b int) (lo, hi int) {
	return t.CompOffset[b], t.CompOffset[b+1]
}

// BranchOf returns the global branch owning global compartment i.
func (t *Topology) BranchOf(i int) int {
	for b := 0; b < t.NumBranches; b++ {
		if i < t.CompOffset[b+1] {
			return b
		}
	}
	return t.NumBranches - 1
}
