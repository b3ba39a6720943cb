// Package sequencer computes the wave schedule of an execution from the
// dependency references declared by the job definition's transaction types.
package sequencer

import (
	"fmt"
	"sort"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

const moduleName = "sequencer"

// DefaultTransactionSequencer implements port.TransactionSequencer with a
// layered topological sort. Each wave collects every type whose dependencies
// are all satisfied by earlier waves, ordered by processing order and then by
// code. Dependency edges always dominate processing-order hints: a type is
// never scheduled before one of its dependencies, regardless of the hints.
type DefaultTransactionSequencer struct{}

// NewDefaultTransactionSequencer creates a new DefaultTransactionSequencer.
func NewDefaultTransactionSequencer() *DefaultTransactionSequencer {
	return &DefaultTransactionSequencer{}
}

var _ port.TransactionSequencer = (*DefaultTransactionSequencer)(nil)

// node is the in-degree bookkeeping for one transaction type during sequencing.
type node struct {
	typ        model.TransactionType
	dependsOn  []string
	dependents []string
	inDegree   int
}

// BuildWaves computes the wave schedule for the given transaction types.
// An empty type list yields an empty schedule. A dependency reference to a
// code not present in the list, a duplicated code, or a cyclic dependency
// graph is a configuration error.
func (s *DefaultTransactionSequencer) BuildWaves(types []model.TransactionType) ([]model.ExecutionWave, error) {
	if len(types) == 0 {
		return []model.ExecutionWave{}, nil
	}

	nodes, err := buildGraph(types)
	if err != nil {
		return nil, err
	}

	waves := make([]model.ExecutionWave, 0)
	remaining := len(nodes)

	for remaining > 0 {
		ready := make([]model.TransactionType, 0)
		for _, n := range nodes {
			if n.inDegree == 0 {
				ready = append(ready, n.typ)
			}
		}

		if len(ready) == 0 {
			// Every remaining node waits on another remaining node.
			members := findCycle(nodes)
			logger.Errorf("Dependency cycle detected among transaction types: %v", members)
			return nil, exception.NewCycleError(moduleName, members)
		}

		model.SortTransactionTypes(ready)
		waves = append(waves, model.ExecutionWave{Index: len(waves), Types: ready})

		for _, t := range ready {
			n := nodes[t.Code]
			for _, depCode := range n.dependents {
				nodes[depCode].inDegree--
			}
			delete(nodes, t.Code)
			remaining--
		}
	}

	logger.Debugf("Sequenced %d transaction types into %d waves.", len(types), len(waves))
	return waves, nil
}

// buildGraph indexes the types by code and computes in-degrees, rejecting
// duplicated codes and references to unknown codes.
func buildGraph(types []model.TransactionType) (map[string]*node, error) {
	nodes := make(map[string]*node, len(types))
	for _, t := range types {
		if _, exists := nodes[t.Code]; exists {
			return nil, exception.NewConfigurationError(moduleName,
				fmt.Sprintf("transaction type code '%s' is declared more than once", t.Code), nil)
		}
		nodes[t.Code] = &node{typ: t, dependsOn: t.DependsOn}
	}

	for code, n := range nodes {
		for _, dep := range n.dependsOn {
			depNode, ok := nodes[dep]
			if !ok {
				return nil, exception.NewConfigurationError(moduleName,
					fmt.Sprintf("transaction type '%s' depends on unknown type '%s'", code, dep), nil)
			}
			depNode.dependents = append(depNode.dependents, code)
			n.inDegree++
		}
	}
	return nodes, nil
}

// findCycle names the members of one complete cycle among the remaining
// nodes. It walks dependency edges from the smallest remaining code, always
// following the smallest unmet dependency, until a node repeats; the loop
// portion of the walk is the cycle. The result is rotated to start at its
// smallest member so the same graph always yields the same member list.
func findCycle(nodes map[string]*node) []string {
	codes := make([]string, 0, len(nodes))
	for code := range nodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	start := codes[0]
	path := make([]string, 0, len(nodes))
	index := make(map[string]int, len(nodes))

	current := start
	for {
		if at, seen := index[current]; seen {
			return rotateToSmallest(path[at:])
		}
		index[current] = len(path)
		path = append(path, current)

		deps := append([]string(nil), nodes[current].dependsOn...)
		sort.Strings(deps)
		next := ""
		for _, dep := range deps {
			if _, remaining := nodes[dep]; remaining {
				next = dep
				break
			}
		}
		if next == "" {
			// Should not happen: every remaining node has an unmet dependency.
			return path
		}
		current = next
	}
}

// rotateToSmallest rotates the cycle so its lexically smallest member is first.
func rotateToSmallest(cycle []string) []string {
	if len(cycle) < 2 {
		return cycle
	}
	smallest := 0
	for i, code := range cycle {
		if code < cycle[smallest] {
			smallest = i
		}
	}
	rotated := make([]string, 0, len(cycle))
	rotated = append(rotated, cycle[smallest:]...)
	rotated = append(rotated, cycle[:smallest]...)
	return rotated
}
