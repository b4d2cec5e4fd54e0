package dag_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/orthoroute/pkg/dag"
)

func ExamplePrecedence() {
	// Three routes share a channel: 0 runs left of 1, 1 runs left of 2.
	p := dag.New(3)
	_ = p.AddEdge(0, 1)
	_ = p.AddEdge(1, 2)

	// A contradicting decision from another channel is dropped.
	err := p.AddEdge(2, 0)
	fmt.Println("rejected:", errors.Is(err, dag.ErrWouldCycle))

	ranks, _ := p.Ranks()
	fmt.Println("ranks:", ranks)
	fmt.Println("cycles:", p.DetectedCycles())
	// Output:
	// rejected: true
	// ranks: [0 1 2]
	// cycles: 1
}
