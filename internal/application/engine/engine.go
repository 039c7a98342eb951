// Package engine implements pull-based workflow evaluation: a memoized
// depth-first walk that resolves a node's upstream inputs before invoking
// its processor. This complements the push-based live-event routing done by
// the coordinator.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"go.uber.org/zap"
)

// ErrCycleDetected is returned when evaluation re-enters a node whose own
// computation has not completed. Registered workflows are acyclic, but the
// engine also accepts raw snapshots and refuses partial results.
var ErrCycleDetected = errors.New("cycle detected in workflow graph")

// Processor computes a node's output from its resolved inputs. Node
// business logic is injected; the engine only orders the evaluation.
type Processor interface {
	Process(ctx context.Context, node domain.Node, inputs []domain.NodeInput) (interface{}, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, node domain.Node, inputs []domain.NodeInput) (interface{}, error)

func (f ProcessorFunc) Process(ctx context.Context, node domain.Node, inputs []domain.NodeInput) (interface{}, error) {
	return f(ctx, node, inputs)
}

// Passthrough returns a processor that echoes a node's inputs, or its
// config when it has no upstream edges.
func Passthrough() Processor {
	return ProcessorFunc(func(_ context.Context, node domain.Node, inputs []domain.NodeInput) (interface{}, error) {
		if len(inputs) == 0 {
			return node.Config, nil
		}
		return inputs, nil
	})
}

// Engine evaluates workflow graphs on demand.
type Engine struct {
	logger *zap.Logger
}

// New creates an engine.
func New(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// run holds the evaluation state of a single Execute invocation. Nothing
// is shared across invocations, so re-entrancy is safe.
type run struct {
	nodes     map[string]domain.Node
	edges     []domain.Edge
	processor Processor
	colors    map[string]int
	results   map[string]interface{}
	processed int
}

const (
	colorWhite = iota // not yet evaluated
	colorGray         // evaluation in progress
	colorBlack        // memoized in results
)

// Execute evaluates the graph from startNodeID and returns its resolved
// output. Each node is processed at most once per invocation; nodes
// unreachable upstream of the start node are never touched.
func (e *Engine) Execute(ctx context.Context, nodes []domain.Node, edges []domain.Edge, startNodeID string, processor Processor) (interface{}, error) {
	r := &run{
		nodes:     make(map[string]domain.Node, len(nodes)),
		edges:     edges,
		processor: processor,
		colors:    make(map[string]int, len(nodes)),
		results:   make(map[string]interface{}, len(nodes)),
	}
	for _, node := range nodes {
		r.nodes[node.ID] = node
	}

	output, err := r.eval(ctx, startNodeID)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("workflow evaluation complete",
		zap.String("start_node", startNodeID),
		zap.Int("nodes_processed", r.processed))

	return output, nil
}

// eval resolves a node depth-first, upstream before downstream. Revisits of
// a completed node return the memoized result; revisits of an in-progress
// node mean a cycle.
func (r *run) eval(ctx context.Context, nodeID string) (interface{}, error) {
	switch r.colors[nodeID] {
	case colorBlack:
		return r.results[nodeID], nil
	case colorGray:
		return nil, fmt.Errorf("%w: node %s", ErrCycleDetected, nodeID)
	}

	node, ok := r.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", nodeID)
	}
	r.colors[nodeID] = colorGray

	var inputs []domain.NodeInput
	for _, edge := range r.edges {
		if edge.Target != nodeID {
			continue
		}
		data, err := r.eval(ctx, edge.Source)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, domain.NodeInput{
			SourceHandle: edge.SourceHandle,
			TargetHandle: edge.TargetHandle,
			Data:         data,
		})
	}

	output, err := r.processor.Process(ctx, node, inputs)
	if err != nil {
		return nil, fmt.Errorf("processing node %s: %w", nodeID, err)
	}

	r.colors[nodeID] = colorBlack
	r.results[nodeID] = output
	r.processed++
	return output, nil
}
