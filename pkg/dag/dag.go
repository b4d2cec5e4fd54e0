package dag

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNode is returned when an id is outside [0, Len()).
	ErrUnknownNode = errors.New("unknown node")

	// ErrWouldCycle is returned by [Precedence.AddEdge] when the edge would
	// close a cycle. The edge is not added.
	ErrWouldCycle = errors.New("edge would create a cycle")

	// ErrGraphHasCycle is returned by [Precedence.TopologicalSort] when not
	// every node could be ordered.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Precedence is a directed graph where an edge a→b means a is ordered
// before b. Node ids are the integers 0..n-1.
type Precedence struct {
	succ           [][]int
	detectedCycles int
}

// New creates a precedence graph with n nodes and no edges.
func New(n int) *Precedence {
	return &Precedence{succ: make([][]int, n)}
}

// Len returns the number of nodes.
func (p *Precedence) Len() int { return len(p.succ) }

// Successors returns the nodes directly ordered after id.
func (p *Precedence) Successors(id int) []int {
	if id < 0 || id >= len(p.succ) {
		return nil
	}
	return p.succ[id]
}

// DetectedCycles returns how many edges were rejected by AddEdge.
func (p *Precedence) DetectedCycles() int { return p.detectedCycles }

// AddEdge records that greater is ordered before less. When less already
// reaches greater (including greater == less) the edge is rejected, counted
// and ErrWouldCycle is returned.
func (p *Precedence) AddEdge(greater, less int) error {
	if greater < 0 || greater >= len(p.succ) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, greater)
	}
	if less < 0 || less >= len(p.succ) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, less)
	}
	if p.HasPath(less, greater) {
		p.detectedCycles++
		return ErrWouldCycle
	}
	p.succ[greater] = append(p.succ[greater], less)
	return nil
}

// HasPath reports whether to is reachable from from. A node always reaches
// itself.
func (p *Precedence) HasPath(from, to int) bool {
	if from == to {
		return true
	}
	if from < 0 || from >= len(p.succ) {
		return false
	}
	visited := make([]bool, len(p.succ))
	queue := []int{from}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		for _, next := range p.succ[n] {
			if next == to {
				return true
			}
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return false
}

// TopologicalSort returns all nodes such that every edge points forward.
func (p *Precedence) TopologicalSort() ([]int, error) {
	inDegree := make([]int, len(p.succ))
	for _, edges := range p.succ {
		for _, to := range edges {
			inDegree[to]++
		}
	}

	var stack []int
	for id, deg := range inDegree {
		if deg == 0 {
			stack = append(stack, id)
		}
	}

	sorted := make([]int, 0, len(p.succ))
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sorted = append(sorted, n)
		for _, next := range p.succ[n] {
			inDegree[next]--
			if inDegree[next] == 0 {
				stack = append(stack, next)
			}
		}
	}

	if len(sorted) != len(p.succ) {
		return nil, ErrGraphHasCycle
	}
	return sorted, nil
}

// Ranks returns the position of every node in the topological order.
func (p *Precedence) Ranks() ([]int, error) {
	sorted, err := p.TopologicalSort()
	if err != nil {
		return nil, err
	}
	ranks := make([]int, len(sorted))
	for pos, id := range sorted {
		ranks[id] = pos
	}
	return ranks, nil
}
