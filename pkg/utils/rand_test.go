package utils

import (
	"testing"
)

func TestNewRandSource(t *testing.T) {
	rng1 := NewRandSource(12345)
	if rng1 == nil {
		t.Fatal("Expected RandSource to be created")
	}
	if rng1.Seed() != 12345 {
		t.Errorf("Expected seed 12345, got %d", rng1.Seed())
	}

	rng2 := NewRandSource(0)
	if rng2.Seed() == 0 {
		t.Error("Expected zero seed to be replaced by the clock")
	}
}

func TestNewWorkerRandSource(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		index    int
		expected int64
	}{
		{"Worker zero keeps base", 1000, 0, 1000},
		{"Worker index is xored in", 1000, 3, 1000 ^ 3},
		{"Xor to zero is kept", 5, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewWorkerRandSource(tt.base, tt.index)
			if src.Seed() != tt.expected {
				t.Errorf("Expected seed %d, got %d", tt.expected, src.Seed())
			}
		})
	}
}

func TestWorkerRandSourcesAreIndependent(t *testing.T) {
	a := NewWorkerRandSource(42, 0)
	b := NewWorkerRandSource(42, 1)

	same := 0
	for i := 0; i < 32; i++ {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	if same == 32 {
		t.Error("Expected worker sources to produce different streams")
	}
}

func TestRandSourceDeterministic(t *testing.T) {
	a := NewRandSource(7)
	b := NewRandSource(7)
	for i := 0; i < 100; i++ {
		if a.Intn(1000) != b.Intn(1000) {
			t.Fatalf("Expected identical streams for identical seeds at draw %d", i)
		}
	}
}

func TestRandSourceFloat64(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Float64()
		if val < 0 || val >= 1.0 {
			t.Errorf("Float64() returned value outside [0, 1): %f", val)
		}
	}
}

func TestRandSourceIntn(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Intn(10)
		if val < 0 || val >= 10 {
			t.Errorf("Intn(10) returned value outside [0, 10): %d", val)
		}
	}
}

func TestRandSourcePerm(t *testing.T) {
	rng := NewRandSource(99)
	perm := rng.Perm(20)
	seen := make(map[int]bool, len(perm))
	for _, v := range perm {
		if v < 0 || v >= 20 || seen[v] {
			t.Fatalf("Perm returned invalid permutation: %v", perm)
		}
		seen[v] = true
	}
}

func TestBernoulliBool(t *testing.T) {
	rng := NewRandSource(12345)
	for i := 0; i < 100; i++ {
		if rng.BernoulliBool(0) {
			t.Fatal("Expected p=0 to never succeed")
		}
		if !rng.BernoulliBool(1) {
			t.Fatal("Expected p=1 to always succeed")
		}
	}
}

func TestDefaultSource(t *testing.T) {
	SetSeed(12345)
	v := Intn(10)
	if v < 0 || v >= 10 {
		t.Errorf("Intn(10) returned value outside [0, 10): %d", v)
	}
	f := Float64()
	if f < 0 || f >= 1 {
		t.Errorf("Float64() returned value outside [0, 1): %f", f)
	}
}
