package control

import (
	"context"
	"testing"
	"time"
)

func TestApp_Lifecycle(t *testing.T) {
	cfg := testConfig()

	app, err := NewApp(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.publisher != nil {
		t.Error("publisher should be disabled without redis")
	}
	if app.db != nil {
		t.Error("expected memory storage")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The RPC endpoint is unreachable; components must keep running.
	time.Sleep(100 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
