package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewSpinnerWithEnvDisable(t *testing.T) {
	t.Setenv("SHEETSPLIT_NO_PROGRESS", "1")
	if NewSpinner("test").Enabled {
		t.Error("expected spinner to be disabled with SHEETSPLIT_NO_PROGRESS=1")
	}
}

func TestNewSpinnerWithJSONDisable(t *testing.T) {
	t.Setenv("SHEETSPLIT_JSON", "true")
	if NewSpinner("test").Enabled {
		t.Error("expected spinner to be disabled with SHEETSPLIT_JSON=true")
	}
}

func TestSpinnerRendersAndStops(t *testing.T) {
	var buf bytes.Buffer
	s := &Spinner{Label: "decoding", Enabled: true, Out: &buf, done: make(chan struct{})}
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop("decoded")
	s.Stop("again") // second stop is a no-op

	out := buf.String()
	if !strings.Contains(out, "decoding") {
		t.Errorf("expected spinner label in output, got %q", out)
	}
	if strings.Count(out, "✓") != 1 || !strings.Contains(out, "decoded") {
		t.Errorf("expected a single result line, got %q", out)
	}
}

func TestSpinnerDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	s := &Spinner{Label: "x", Enabled: false, Out: &buf, done: make(chan struct{})}
	s.Start()
	s.Update("y")
	s.Stop("done")
	if buf.Len() != 0 {
		t.Errorf("disabled spinner wrote %q", buf.String())
	}
}

func TestStep(t *testing.T) {
	t.Setenv("SHEETSPLIT_NO_PROGRESS", "1")
	ran := false
	if err := Step("a", "b", func() error { ran = true; return nil }); err != nil || !ran {
		t.Errorf("Step did not run fn: ran=%v err=%v", ran, err)
	}

	boom := errors.New("boom")
	if err := Step("a", "b", func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Step should return fn's error, got %v", err)
	}
}
