package morph

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// swcPoint is one traced sample of an SWC reconstruction.
type swcPoint struct {
	id     int
	x      float64
	y      float64
	z      float64
	radius float64
	parent int
}

// SWCMorphology is a cell morphology extracted from an SWC file, reduced
// to the per-branch quantities the indexer and conductance builder need.
type SWCMorphology struct {
	Parents     []int     // parent branch index, -1 for the root
	PathLengths []float64 // traced path length per branch (µm)
	EndRadii    []float64 // radius at each branch endpoint (µm)
	StartRadius float64   // radius of the first traced sample (µm)
}

// ReadSWC parses an SWC morphology file and splits the traced samples
// into branches at branching points, fusing single-child tracing
// artifacts, so the result is a strict tree of branches.
func ReadSWC(path string) (*SWCMorphology, error) {
	points, err := readSWCPoints(path)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("swc %s: fewer than two samples", path)
	}

	branches := splitIntoBranches(points)
	branches = fuseSingleChildBranches(branches)

	// Order branches by their first sample so parents precede children.
	sort.SliceStable(branches, func(i, j int) bool {
		return branches[i][0] < branches[j][0]
	})

	byID := make(map[int]swcPoint, len(points))
	for _, p := range points {
		byID[p.id] = p
	}

	m := &SWCMorphology{
		Parents:     buildParents(branches),
		PathLengths: make([]float64, len(branches)),
		EndRadii:    make([]float64, len(branches)),
		StartRadius: points[0].radius,
	}
	for i, b := range branches {
		m.PathLengths[i] = pathLength(b, byID)
		m.EndRadii[i] = byID[b[len(b)-1]].radius
	}
	return m, nil
}

func readSWCPoints(path string) ([]swcPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var points []swcPoint
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 7 {
			return nil, fmt.Errorf("swc %s:%d: expected 7 columns, got %d", path, line, len(fields))
		}
		var p swcPoint
		var parseErr error
		parse := func(s string) float64 {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil && parseErr == nil {
				parseErr = fmt.Errorf("swc %s:%d: %w", path, line, err)
			}
			return v
		}
		p.id = int(parse(fields[0]))
		p.x = parse(fields[2])
		p.y = parse(fields[3])
		p.z = parse(fields[4])
		p.radius = parse(fields[5])
		p.parent = int(parse(fields[6]))
		if parseErr != nil {
			return nil, parseErr
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// splitIntoBranches cuts the sample sequence wherever tracing jumps to a
// new parent, producing sample-id chains that each start at a branching
// point and end at the next one (or a tip).
func splitIntoBranches(points []swcPoint) [][]int {
	branchStarts := make(map[int]bool)
	prev := -2
	for _, p := range points {
		if p.parent != prev {
			branchStarts[p.parent] = true
		}
		prev = p.id
	}
	// The first recorded start is the soma's virtual parent, not a cut.
	first := points[0].parent
	delete(branchStarts, first)

	var branches [][]int
	var current []int
	for _, p := range points {
		if branchStarts[p.parent] {
			branches = append(branches, current)
			current = []int{p.parent, p.id}
		} else {
			current = append(current, p.id)
		}
	}
	branches = append(branches, current)
	return branches
}

// fuseSingleChildBranches merges branches interrupted mid-trace, so every
// non-root branch point has at least two children.
func fuseSingleChildBranches(branches [][]int) [][]int {
	for {
		counts := make(map[int]int)
		for _, b := range branches[1:] {
			counts[b[0]]++
		}
		fused := false
		for loc := 1; loc < len(branches); loc++ {
			start := branches[loc][0]
			if counts[start] != 1 {
				continue
			}
			solo := branches[loc]
			rest := append(branches[:loc:loc], branches[loc+1:]...)
			for i, b := range rest {
				if b[len(b)-1] == start {
					rest[i] = append(b, solo[1:]...)
					break
				}
			}
			branches = rest
			fused = true
			break
		}
		if !fused {
			return branches
		}
	}
}

func buildParents(branches [][]int) []int {
	parents := make([]int, len(branches))
	for i, b := range branches {
		parents[i] = -1
		for j, other := range branches {
			if j != i && other[len(other)-1] == b[0] {
				parents[i] = j
				break
			}
		}
	}
	return parents
}

func pathLength(branch []int, byID map[int]swcPoint) float64 {
	total := 0.0
	for i := 1; i < len(branch); i++ {
		a, okA := byID[branch[i-1]]
		b, okB := byID[branch[i]]
		if !okA || !okB {
			continue
		}
		dx, dy, dz := b.x-a.x, b.y-a.y, b.z-a.z
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total
}
