package schedbench

import (
	"errors"
	"testing"
	"time"
)

func TestSummarizeComputesMeanAndStdDev(t *testing.T) {
	samples := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
	}
	s := Summarize(samples)
	if s.N != 3 {
		t.Errorf("N = %d, want 3", s.N)
	}
	if s.Mean != 20*time.Millisecond {
		t.Errorf("Mean = %s, want 20ms", s.Mean)
	}
	if s.StdDev <= 0 {
		t.Errorf("StdDev = %s, want > 0", s.StdDev)
	}
}

func TestRunCollectsEverySample(t *testing.T) {
	calls := 0
	s, err := Run(5, func() (time.Duration, error) {
		calls++
		return time.Duration(calls) * time.Millisecond, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.N != 5 {
		t.Errorf("N = %d, want 5", s.N)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
}

func TestRunPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	_, err := Run(3, func() (time.Duration, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}
