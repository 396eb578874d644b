package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentLedger, Handler: slog.NewJSONHandler(&buf, nil)})

	logger.Info("Transaction saved", FieldTxID, 42)

	out := buf.String()
	if !strings.Contains(out, `"component":"ledger"`) {
		t.Errorf("record missing component attr: %s", out)
	}
	if !strings.Contains(out, `"tx_id":42`) {
		t.Errorf("record missing caller attr: %s", out)
	}
}

func TestSetDefaultCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	defer slog.SetDefault(prev)

	SetDefault(New(Config{Component: ComponentRecurring, Handler: slog.NewJSONHandler(&buf, nil)}))

	// The services log through the process default, not the wrapper.
	slog.Info("Recurring sync finished", "inserted", 3)

	out := buf.String()
	if !strings.Contains(out, `"component":"recurring"`) {
		t.Errorf("default-logger record missing component attr: %s", out)
	}
}

func TestWithComponentReplacesStamp(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentApp, Handler: slog.NewJSONHandler(&buf, nil)})

	worker := logger.WithComponent(ComponentWorker)
	worker.Warn("tick")

	out := buf.String()
	if !strings.Contains(out, `"component":"worker"`) {
		t.Errorf("record missing new component: %s", out)
	}
	if got := strings.Count(out, `"component"`); got != 1 {
		t.Errorf("record carries %d component attrs, want exactly 1: %s", got, out)
	}
	if worker.Component() != ComponentWorker {
		t.Errorf("Component() = %q, want %q", worker.Component(), ComponentWorker)
	}
}
