package kpm

import (
	"fmt"
	"math/rand"
	"testing"
)

// BenchmarkSpectralDensity tests performance across different system sizes
func BenchmarkSpectralDensity(b *testing.B) {
	sizes := []int{64, 256, 1024}

	for _, n := range sizes {
		b.Run(fmt.Sprintf("Build_n%d", n), func(b *testing.B) {
			benchmarkBuild(b, n)
		})

		b.Run(fmt.Sprintf("Eval_n%d", n), func(b *testing.B) {
			benchmarkEval(b, n)
		})

		b.Run(fmt.Sprintf("Average_n%d", n), func(b *testing.B) {
			benchmarkAverage(b, n)
		})
	}
}

func benchmarkBuild(b *testing.B, n int) {
	ham := ringHam(b, n)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := New(ham, WithNumMoments(64), WithNumRandVecs(4),
			WithBounds(-2, 2), WithRandomSeed(42))
		if err != nil {
			b.Fatalf("New() error = %v", err)
		}
	}
}

func benchmarkEval(b *testing.B, n int) {
	sd, err := New(ringHam(b, n), WithNumMoments(64), WithNumRandVecs(4),
		WithBounds(-2, 2), WithRandomSeed(42))
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	energies := make([]float64, 1000)
	for i := range energies {
		energies[i] = rng.Float64()*4 - 2
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		sd.Eval(energies[i%len(energies)])
	}
}

func benchmarkAverage(b *testing.B, n int) {
	sd, err := New(ringHam(b, n), WithNumMoments(64), WithNumRandVecs(4),
		WithBounds(-2, 2), WithRandomSeed(42))
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		sd.Average(nil)
	}
}

// BenchmarkMomentGrowth tests the cost of extending a finished expansion
func BenchmarkMomentGrowth(b *testing.B) {
	factors := []int{2, 4, 8}

	for _, f := range factors {
		b.Run(fmt.Sprintf("Moments_x%d", f), func(b *testing.B) {
			benchmarkMomentGrowth(b, f)
		})
	}
}

func benchmarkMomentGrowth(b *testing.B, factor int) {
	ham := ringHam(b, 256)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		sd, err := New(ham, WithNumMoments(32), WithNumRandVecs(2),
			WithBounds(-2, 2), WithRandomSeed(42))
		if err != nil {
			b.Fatalf("New() error = %v", err)
		}
		b.StartTimer()

		if err := sd.IncreaseAccuracy(32*factor, 0, 0); err != nil {
			b.Fatalf("IncreaseAccuracy() error = %v", err)
		}
	}
}

// BenchmarkWorkers tests moment accumulation under different parallelism
func BenchmarkWorkers(b *testing.B) {
	workers := []int{1, 2, 4, 8}

	for _, w := range workers {
		b.Run(fmt.Sprintf("Workers_%d", w), func(b *testing.B) {
			benchmarkWorkers(b, w)
		})
	}
}

func benchmarkWorkers(b *testing.B, workers int) {
	ham := ringHam(b, 512)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := New(ham, WithNumMoments(64), WithNumRandVecs(8),
			WithBounds(-2, 2), WithRandomSeed(42), WithWorkers(workers))
		if err != nil {
			b.Fatalf("New() error = %v", err)
		}
	}
}
