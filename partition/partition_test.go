package partition

import "testing"

func TestPacketsCoverRange(t *testing.T) {
	for _, tc := range []struct{ cardinality, nWorkers, k int }{
		{1, 1, 4},
		{1000, 4, 4},
		{10000, 8, 4},
		{7, 16, 4},
		{123457, 3, 4},
	} {
		packets := Packets(tc.cardinality, tc.nWorkers, tc.k)
		if err := Validate(packets, tc.cardinality); err != nil {
			t.Errorf("cardinality=%d nWorkers=%d k=%d: %v", tc.cardinality, tc.nWorkers, tc.k, err)
		}
	}
}

func TestPacketsDeterministic(t *testing.T) {
	a := Packets(10000, 8, 4)
	b := Packets(10000, 8, 4)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("packet %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPacketsLastPacketShorter(t *testing.T) {
	packets := Packets(10, 1, 4)
	// size = ceil(10/4) = 3, so packets are [0,3) [3,6) [6,9) [9,10)
	if got, want := len(packets), 4; got != want {
		t.Fatalf("got %d packets, want %d", got, want)
	}
	if got, want := packets[len(packets)-1].Len(), 1; got != want {
		t.Fatalf("last packet has length %d, want %d", got, want)
	}
}

func TestPacketsPanicsOnInvalidInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid cardinality")
		}
	}()
	Packets(0, 4, 4)
}
