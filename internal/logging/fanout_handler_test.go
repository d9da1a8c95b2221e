package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Error("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h)
	logger.Debug("sentence aligned", slog.Int(FieldSentence, 3))

	if infoBuf.Len() != 0 {
		t.Errorf("info handler should not receive debug record, got %q", infoBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "sentence=3") {
		t.Errorf("debug handler missing record, got %q", debugBuf.String())
	}
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected fanout to be enabled when any handler is")
	}
}

func TestTeeLoggerCarriesAttrs(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&baseBuf, nil))
	logger := TeeLogger(base, slog.NewJSONHandler(&teeBuf, nil)).With(String(FieldRunID, "run-1"))
	logger.Info("batch exported", String(FieldChunkID, "abc"))

	for name, out := range map[string]string{"base": baseBuf.String(), "tee": teeBuf.String()} {
		if !strings.Contains(out, "run-1") || !strings.Contains(out, "abc") {
			t.Errorf("%s output missing attrs: %q", name, out)
		}
	}
}
