package ragflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/ragflow/pkg/ragflow/observability"
	"go.opentelemetry.io/otel/trace"
)

// Run executes the graph with the given initial state.
// Returns the final state and any error encountered.
//
// On success, returns the state after every reachable path has reached END.
// On error, returns the state at the point of failure.
//
// Execution flow:
//  1. Seed a FIFO worklist with the entry node
//  2. Check for cancellation when WithStopOnCancel is set
//  3. Invoke the node and merge its update into the state
//  4. Enqueue its successors in order, skipping END
//  5. Repeat until the worklist is empty or an error occurs
//
// A node reachable by two paths runs once per path. An entry that is empty
// or not schedulable returns the state unchanged.
//
// Example:
//
//	ctx := ragflow.NewContext(context.Background(), ragflow.WithGenerator(gen))
//	result, err := compiled.Run(ctx, ragflow.NewState("hello", nil))
func (cg *CompiledGraph) Run(ctx Context, state State, opts ...RunOption) (result State, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}
	logger := ctx.Logger()

	startTime := time.Now()
	observability.LogRunStart(logger, runID, cg.entry)

	var execCtx context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, runID, cg.entry)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	var nodeCount int
	result, nodeCount, runErr = cg.runWorklist(execCtx, ctx, state, &cfg)

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())

	cfg.metrics.RecordWorkflowRun(ctx, runErr == nil, duration)

	if runErr != nil {
		observability.LogRunError(logger, runID, runErr, durationMs, lastNodeOf(runErr))
	} else {
		observability.LogRunComplete(logger, runID, durationMs, nodeCount)
	}

	return result, runErr
}

// lastNodeOf extracts the node ID carried by an execution error.
func lastNodeOf(err error) string {
	var nodeErr *NodeError
	var panicErr *PanicError
	var maxErr *MaxIterationsError
	var cancelErr *CancellationError
	switch {
	case errors.As(err, &nodeErr):
		return nodeErr.NodeID
	case errors.As(err, &panicErr):
		return panicErr.NodeID
	case errors.As(err, &maxErr):
		return maxErr.LastNodeID
	case errors.As(err, &cancelErr):
		return cancelErr.NodeID
	}
	return ""
}

// runWorklist walks the graph breadth-first from the entry.
// tracingCtx carries span context; rfCtx is the ragflow Context.
// Returns the final state, node count, and any error.
func (cg *CompiledGraph) runWorklist(tracingCtx context.Context, rfCtx Context, state State, cfg *runConfig) (State, int, error) {
	if cg.entry == "" || !cg.schedulable[cg.entry] {
		return state, 0, nil
	}

	queue := []string{cg.entry}
	iterations := 0
	nodeCount := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		iterations++
		if iterations > cfg.maxIterations {
			return state, nodeCount, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}

		if cfg.stopOnCancel {
			if err := rfCtx.Err(); err != nil {
				return state, nodeCount, &CancellationError{
					NodeID: current,
					State:  state,
					Cause:  err,
				}
			}
		}

		nodeType := cg.nodeType[current]
		observability.LogNodeStart(rfCtx.Logger(), current, string(nodeType))

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = cfg.spans.StartNodeSpan(tracingCtx, current, string(nodeType))
		}

		nodeStart := time.Now()

		update, nodeErr := cg.executeNode(rfCtx, nodeTracingCtx, current, state, cfg)

		nodeDuration := time.Since(nodeStart)
		cfg.metrics.RecordNodeExecution(nodeTracingCtx, string(nodeType), nodeDuration, nodeErr)

		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}

		if nodeErr != nil {
			observability.LogNodeError(rfCtx.Logger(), current, nodeErr)
			return state, nodeCount, nodeErr
		}
		observability.LogNodeComplete(rfCtx.Logger(), current, float64(nodeDuration.Milliseconds()))
		nodeCount++

		state = state.Merge(update)

		for _, next := range cg.successors[current] {
			if next != END {
				queue = append(queue, next)
			}
		}
	}

	return state, nodeCount, nil
}

// executeNode invokes a single node with panic recovery.
// Returns the node's update and any error (including wrapped panics).
func (cg *CompiledGraph) executeNode(rfCtx Context, tracingCtx context.Context, nodeID string, state State, cfg *runConfig) (update Update, err error) {
	fn, exists := cg.getNode(nodeID)
	if !exists {
		// Compile only schedules registered nodes.
		return Update{}, &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("node not found: %s", nodeID),
		}
	}

	nodeCtx := rfCtx
	if ec, ok := rfCtx.(*executionContext); ok {
		nodeCtx = ec.forNode(tracingCtx, nodeID, cg.nodeType[nodeID], cfg.metrics)
	}

	defer func() {
		if r := recover(); r != nil {
			update = Update{}
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	update, err = fn(nodeCtx, state)
	if err != nil {
		return Update{}, &NodeError{
			NodeID: nodeID,
			Op:     "execute",
			Err:    err,
		}
	}

	return update, nil
}
