package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records as JSON lines.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:   h.buf,
		level: h.level,
		attrs: make([]slog.Attr, len(h.attrs)+len(attrs)),
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *testHandler) lastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(lines[i], &m); err == nil {
			return m
		}
	}
	return nil
}

func TestEnrichLogger(t *testing.T) {
	h := newTestHandler()
	enriched := EnrichLogger(slog.New(h), "run-123", "kb-1")
	enriched.Info("test message")

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "run-123", record["run_id"])
	assert.Equal(t, "kb-1", record["node_id"])

	assert.Nil(t, EnrichLogger(nil, "run", "node"))
}

func TestLogHelpers(t *testing.T) {
	tests := []struct {
		name    string
		log     func(*slog.Logger)
		level   string
		msg     string
		wantKey string
		wantVal any
	}{
		{
			name:    "run start",
			log:     func(l *slog.Logger) { LogRunStart(l, "run-1", "1") },
			level:   "INFO",
			msg:     "workflow run starting",
			wantKey: "entry",
			wantVal: "1",
		},
		{
			name:    "run complete",
			log:     func(l *slog.Logger) { LogRunComplete(l, "run-1", 12, 3) },
			level:   "INFO",
			msg:     "workflow run completed",
			wantKey: "nodes_executed",
			wantVal: float64(3),
		},
		{
			name:    "run error",
			log:     func(l *slog.Logger) { LogRunError(l, "run-1", errors.New("boom"), 5, "llm") },
			level:   "ERROR",
			msg:     "workflow run failed",
			wantKey: "last_node",
			wantVal: "llm",
		},
		{
			name:    "node start",
			log:     func(l *slog.Logger) { LogNodeStart(l, "2", "knowledgeBase") },
			level:   "DEBUG",
			msg:     "node starting",
			wantKey: "node_type",
			wantVal: "knowledgeBase",
		},
		{
			name:    "node complete",
			log:     func(l *slog.Logger) { LogNodeComplete(l, "2", 7) },
			level:   "DEBUG",
			msg:     "node completed",
			wantKey: "duration_ms",
			wantVal: float64(7),
		},
		{
			name:    "node error",
			log:     func(l *slog.Logger) { LogNodeError(l, "3", errors.New("panic")) },
			level:   "ERROR",
			msg:     "node failed",
			wantKey: "error",
			wantVal: "panic",
		},
		{
			name:    "node degraded",
			log:     func(l *slog.Logger) { LogNodeDegraded(l, "2", "retriever", errors.New("timeout")) },
			level:   "WARN",
			msg:     "node degraded",
			wantKey: "collaborator",
			wantVal: "retriever",
		},
		{
			name:    "edge pruned",
			log:     func(l *slog.Logger) { LogEdgePruned(l, "A", "C") },
			level:   "DEBUG",
			msg:     "pruning redundant edge",
			wantKey: "target",
			wantVal: "C",
		},
		{
			name:    "graph compiled",
			log:     func(l *slog.Logger) { LogGraphCompiled(l, "A", 3, 2, 1) },
			level:   "DEBUG",
			msg:     "workflow graph compiled",
			wantKey: "pruned_edges",
			wantVal: float64(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			tt.log(slog.New(h))

			record := h.lastRecord()
			require.NotNil(t, record)
			assert.Equal(t, tt.level, record["level"])
			assert.Equal(t, tt.msg, record["msg"])
			assert.Equal(t, tt.wantVal, record[tt.wantKey])
		})
	}
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogRunStart(nil, "r", "e")
		LogRunComplete(nil, "r", 0, 0)
		LogRunError(nil, "r", errors.New("x"), 0, "")
		LogNodeStart(nil, "n", "t")
		LogNodeComplete(nil, "n", 0)
		LogNodeError(nil, "n", errors.New("x"))
		LogNodeDegraded(nil, "n", "c", errors.New("x"))
		LogEdgePruned(nil, "a", "b")
		LogGraphCompiled(nil, "a", 0, 0, 0)
	})
}
