package simrand

import (
	"math"
	"testing"
)

func TestUniformIsDeterministicForSameSeed(t *testing.T) {
	a := Uniform(42, 0, 10)
	b := Uniform(42, 0, 10)
	if a != b {
		t.Fatalf("same seed produced different draws: %f vs %f", a, b)
	}
}

func TestUniformWithinBounds(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		v := Uniform(seed, 5, 15)
		if v < 5 || v >= 15 {
			t.Fatalf("Uniform(%d, 5, 15) = %f, out of range", seed, v)
		}
	}
}

func TestBernoulliExtremeProbabilities(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		if Bernoulli(seed, 0) {
			t.Fatalf("Bernoulli(%d, 0) returned true", seed)
		}
	}
	for seed := int64(0); seed < 20; seed++ {
		if !Bernoulli(seed, 1) {
			t.Fatalf("Bernoulli(%d, 1) returned false", seed)
		}
	}
}

func TestExponentialDeltaMSNonPositiveRateIsInfinite(t *testing.T) {
	if got := ExponentialDeltaMS(1, 0); got != math.MaxInt64 {
		t.Fatalf("expected MaxInt64 for zero rate, got %d", got)
	}
	if got := ExponentialDeltaMS(1, -5); got != math.MaxInt64 {
		t.Fatalf("expected MaxInt64 for negative rate, got %d", got)
	}
}

func TestExponentialDeltaMSPositiveRateIsNonNegative(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		v := ExponentialDeltaMS(seed, 2.5)
		if v < 0 {
			t.Fatalf("ExponentialDeltaMS(%d, 2.5) = %d, want >= 0", seed, v)
		}
	}
}

func TestSeedDerivationFunctionsDiffer(t *testing.T) {
	scenarioSeed := int64(100)
	rider := RiderSpawnSeed(scenarioSeed, 5000, 3)
	driver := DriverSpawnSeed(scenarioSeed, 5000, 3)
	if rider == driver {
		t.Fatalf("rider and driver spawn seeds collided: %d", rider)
	}
}

func TestBaseRateZeroWindowIsZero(t *testing.T) {
	if r := BaseRate(100, 0, RiderAvgMult); r != 0 {
		t.Fatalf("BaseRate with zero window = %f, want 0", r)
	}
}

func TestBaseRateScalesWithTargetCount(t *testing.T) {
	low := BaseRate(10, 3600, RiderAvgMult)
	high := BaseRate(100, 3600, RiderAvgMult)
	if high <= low {
		t.Fatalf("expected higher target count to yield higher base rate: %f vs %f", high, low)
	}
}
