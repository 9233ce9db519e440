package ragflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"parse bare", &ParseError{}, "parse error"},
		{"parse", &ParseError{Msg: "malformed JSON at offset 3"}, "parse error: malformed JSON at offset 3"},
		{"schema", &SchemaError{Field: "nodes[1].id", Msg: "required field is missing"}, "schema error: nodes[1].id: required field is missing"},
		{"schema no field", &SchemaError{Msg: "bad"}, "schema error: bad"},
		{"structural", &StructuralError{Kind: "duplicate_id", Msg: "dup"}, "structural error: dup"},
		{"node", &NodeError{NodeID: "n", Op: "execute", Err: errors.New("x")}, "node n: execute: x"},
		{"panic", &PanicError{NodeID: "n", Value: 42}, "node n panicked: 42"},
		{"cancel", &CancellationError{NodeID: "n", Cause: context.Canceled}, "cancelled before node n: context canceled"},
		{"max", &MaxIterationsError{Max: 3, LastNodeID: "n"}, "exceeded maximum iterations (3) at node n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")

	assert.ErrorIs(t, &ParseError{Err: inner}, ErrParse)
	assert.ErrorIs(t, &ParseError{Err: inner}, inner)
	assert.ErrorIs(t, &SchemaError{}, ErrSchema)
	assert.ErrorIs(t, &StructuralError{}, ErrStructural)
	assert.ErrorIs(t, &NodeError{Err: inner}, inner)
	assert.ErrorIs(t, &CancellationError{Cause: context.DeadlineExceeded}, context.DeadlineExceeded)
	assert.ErrorIs(t, &MaxIterationsError{}, ErrMaxIterations)

	assert.NotErrorIs(t, &SchemaError{}, ErrParse)
}

func TestLastNodeOf(t *testing.T) {
	assert.Equal(t, "a", lastNodeOf(&NodeError{NodeID: "a", Err: errors.New("x")}))
	assert.Equal(t, "b", lastNodeOf(&PanicError{NodeID: "b"}))
	assert.Equal(t, "c", lastNodeOf(&MaxIterationsError{LastNodeID: "c"}))
	assert.Equal(t, "d", lastNodeOf(&CancellationError{NodeID: "d", Cause: context.Canceled}))
	assert.Equal(t, "", lastNodeOf(errors.New("plain")))
}
