package ragflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stepType NodeType = "step"

func stepGraph(t *testing.T, fn NodeFunc, ids []string, es []Edge) *CompiledGraph {
	t.Helper()
	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, node(id, stepType))
	}
	return compileQuiet(t, nodes, es, NewRegistry().Register(stepType, fn))
}

// TestRun_LinearFlow tests basic linear execution.
func TestRun_LinearFlow(t *testing.T) {
	var order []string
	cg := stepGraph(t, trackingNode(&order), []string{"A", "B", "C"}, edges("A", "B", "B", "C"))

	_, err := cg.Run(testCtx(), NewState("q", nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestRun_FanOutBreadthFirst(t *testing.T) {
	var order []string
	cg := stepGraph(t, trackingNode(&order), []string{"A", "B", "C", "D"}, edges("A", "B", "A", "C", "B", "D"))

	_, err := cg.Run(testCtx(), NewState("q", nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, order)
}

func TestRun_DiamondRunsJoinPerPath(t *testing.T) {
	var order []string
	cg := stepGraph(t, trackingNode(&order), []string{"A", "B", "C", "D"},
		edges("A", "B", "A", "C", "B", "D", "C", "D"))

	_, err := cg.Run(testCtx(), NewState("q", nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "D"}, order)
}

func TestRun_StateMergedBetweenNodes(t *testing.T) {
	var seen []State
	fn := func(ctx Context, s State) (Update, error) {
		seen = append(seen, s)
		switch ctx.NodeID() {
		case "A":
			return Update{}.WithContext(Some("docs")), nil
		case "B":
			return Update{}.WithLLMResponse(Some("answer")), nil
		default:
			return Update{}.WithFinalOutput(Some(s.LLMResponse.String() + " with " + s.Context.String())), nil
		}
	}
	cg := stepGraph(t, fn, []string{"A", "B", "C"}, edges("A", "B", "B", "C"))

	result, err := cg.Run(testCtx(), NewState("q", nil))

	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.True(t, seen[0].Context.IsNull())
	assert.Equal(t, Some("docs"), seen[1].Context)
	assert.Equal(t, Some("answer with docs"), result.FinalOutput)
}

func TestRun_EmptyEntryIsTerminal(t *testing.T) {
	cg := compileQuiet(t, nil, nil, nil)
	s := NewState("q", nil)

	result, err := cg.Run(testCtx(), s)

	require.NoError(t, err)
	assert.Equal(t, s, result)
}

func TestRun_UnschedulableEntryIsTerminal(t *testing.T) {
	var order []string
	reg := NewRegistry().Register(stepType, trackingNode(&order))
	cg := compileQuiet(t, []Node{node("M", "mystery"), node("B", stepType)}, edges("M", "B"), reg)

	_, err := cg.Run(testCtx(), NewState("q", nil))

	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestRun_NodeError(t *testing.T) {
	boom := errors.New("boom")
	fn := func(ctx Context, s State) (Update, error) {
		if ctx.NodeID() == "B" {
			return Update{}.WithFinalOutput(Some("ignored")), boom
		}
		return Update{}.WithContext(Some("from " + ctx.NodeID())), nil
	}
	cg := stepGraph(t, fn, []string{"A", "B", "C"}, edges("A", "B", "B", "C"))

	result, err := cg.Run(testCtx(), NewState("q", nil))

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "B", nodeErr.NodeID)
	assert.Equal(t, "execute", nodeErr.Op)

	assert.Equal(t, Some("from A"), result.Context)
	assert.True(t, result.FinalOutput.IsNull())
}

func TestRun_PanicRecovered(t *testing.T) {
	fn := func(ctx Context, s State) (Update, error) {
		panic("kaboom")
	}
	cg := stepGraph(t, fn, []string{"A"}, nil)

	_, err := cg.Run(testCtx(), NewState("q", nil))

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "A", panicErr.NodeID)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Contains(t, err.Error(), "node A panicked: kaboom")
}

func TestRun_MaxIterations(t *testing.T) {
	var order []string
	cg := stepGraph(t, trackingNode(&order), []string{"A", "B"}, edges("A", "B", "B", "A"))

	_, err := cg.Run(testCtx(), NewState("q", nil), WithMaxIterations(5))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxIterations))

	var maxErr *MaxIterationsError
	require.True(t, errors.As(err, &maxErr))
	assert.Equal(t, 5, maxErr.Max)
	assert.Equal(t, "B", maxErr.LastNodeID)
	assert.Len(t, order, 5)
}

func TestRun_CancelledContextStillVisitsEveryNode(t *testing.T) {
	var order []string
	cg := stepGraph(t, trackingNode(&order), []string{"A", "B"}, edges("A", "B"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cg.Run(NewContext(ctx, WithLogger(quietLogger())), NewState("q", nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, order)
}

func TestRun_CancelledMidRunCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []string
	fn := func(c Context, s State) (Update, error) {
		order = append(order, c.NodeID())
		cancel()
		return Update{}, nil
	}
	cg := stepGraph(t, fn, []string{"A", "B", "C"}, edges("A", "B", "B", "C"))

	_, err := cg.Run(NewContext(ctx, WithLogger(quietLogger())), NewState("q", nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestRun_StopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []string
	fn := func(c Context, s State) (Update, error) {
		order = append(order, c.NodeID())
		cancel()
		return Update{}, nil
	}
	cg := stepGraph(t, fn, []string{"A", "B"}, edges("A", "B"))

	_, err := cg.Run(NewContext(ctx, WithLogger(quietLogger())), NewState("q", nil), WithStopOnCancel(true))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	var cancelErr *CancellationError
	require.True(t, errors.As(err, &cancelErr))
	assert.Equal(t, "B", cancelErr.NodeID)
	assert.Equal(t, []string{"A"}, order)
}

func TestRun_NilContext(t *testing.T) {
	cg := stepGraph(t, trackingNode(new([]string)), []string{"A"}, nil)

	_, err := cg.Run(nil, NewState("q", nil))

	assert.ErrorIs(t, err, ErrNilContext)
}

func TestRun_NodeContext(t *testing.T) {
	var runIDs, nodeIDs []string
	fn := func(ctx Context, s State) (Update, error) {
		runIDs = append(runIDs, ctx.RunID())
		nodeIDs = append(nodeIDs, ctx.NodeID())
		assert.NotNil(t, ctx.Logger())
		return Update{}, nil
	}
	cg := stepGraph(t, fn, []string{"A", "B"}, edges("A", "B"))

	_, err := cg.Run(testCtx(WithContextRunID("run-42")), NewState("q", nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"run-42", "run-42"}, runIDs)
	assert.Equal(t, []string{"A", "B"}, nodeIDs)
}

func TestRun_WithTracingAndMetricsNoProvider(t *testing.T) {
	var order []string
	cg := stepGraph(t, trackingNode(&order), []string{"A", "B"}, edges("A", "B"))

	_, err := cg.Run(testCtx(), NewState("q", nil),
		WithTracing(true), WithMetrics(true), WithRunID("custom"))

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, order)
}
