package host

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	ctx := context.Background()
	r := New(Config{})
	defer r.Close(ctx)
	if err := r.LoadWasm(ctx, "m", mathModule); err != nil {
		t.Fatalf("LoadWasm failed: %v", err)
	}

	loaded := logs.FilterMessage("wasm module loaded").All()
	if len(loaded) != 1 || loaded[0].LoggerName != "host" {
		t.Fatalf("loaded entries = %+v", loaded)
	}
	if fields := loaded[0].ContextMap(); fields["module"] != "m" || fields["functions"] != int64(3) {
		t.Errorf("fields = %v", fields)
	}
}
