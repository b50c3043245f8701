package kpm

import (
	"math/cmplx"
	"sync"
)

// probeSlot holds the accumulation state of a single random probe vector:
// the vector itself, the last two Chebyshev iterates (so the recurrence can
// be resumed), and the raw moments collected so far. During a parallel
// update every worker owns exactly one slot.
type probeSlot struct {
	vec     []complex128
	prev    []complex128   // α_{k-1}
	last    []complex128   // α_k
	moments [][]complex128 // moments[k] has outDim entries
}

// updateSlots advances the Chebyshev recurrence so that nRand slots hold
// nMoments moments each. Exactly one of the two counters may grow per call:
// growing both returns ErrInvalidGrowthRequest, shrinking either is reported
// through the warning handler and ignored. Callers append fresh slots before
// growing the random-vector count and update the counters themselves after
// the call returns.
func (sd *SpectralDensity) updateSlots(nMoments, nRand int) error {
	var rStart, newRand int
	switch {
	case nRand == sd.numRandVecs:
		rStart, newRand = 0, 0
	case nRand > sd.numRandVecs:
		rStart, newRand = sd.numRandVecs, nRand-sd.numRandVecs
	default:
		sd.warnf("kpm: decreasing the number of random vectors is ignored")
		return nil
	}

	mStart := 2
	if nMoments == sd.numMoments {
		if newRand == 0 {
			// nothing new to calculate
			return nil
		}
	} else {
		if nMoments < sd.numMoments {
			sd.warnf("kpm: decreasing the number of moments is ignored")
			return nil
		}
		mStart = sd.numMoments
		if newRand != 0 {
			return ErrInvalidGrowthRequest
		}
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, sd.workers)
	for r := rStart; r < nRand; r++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(s *probeSlot) {
			defer wg.Done()
			sd.advanceSlot(s, newRand > 0, mStart, nMoments)
			<-sem
		}(&sd.slots[r])
	}
	// barrier: aggregation must not observe half-written slots
	wg.Wait()
	return nil
}

// advanceSlot runs the three-term recurrence T_{k+1} = 2H̃·T_k - T_{k-1} for
// one probe slot, either from scratch (fresh) or resuming from the stored
// iterates at moment mStart.
func (sd *SpectralDensity) advanceSlot(s *probeSlot, fresh bool, mStart, m int) {
	n := len(s.vec)

	if fresh {
		alpha := append([]complex128(nil), s.vec...)
		alphaNext := make([]complex128, n)
		sd.ham.MatVec(alphaNext, alpha)
		s.moments = make([][]complex128, m)
		if sd.form == nil {
			s.moments[0] = []complex128{vdot(s.vec, s.vec)}
			s.moments[1] = []complex128{vdot(s.vec, alphaNext)}
		} else {
			s.moments[0] = sd.form.Apply(s.vec, s.vec)
			s.moments[1] = sd.form.Apply(s.vec, alphaNext)
		}
		s.prev, s.last = alpha, alphaNext
	} else {
		grown := make([][]complex128, m)
		copy(grown, s.moments)
		s.moments = grown
	}

	alpha, alphaNext := s.prev, s.last
	tmp := make([]complex128, n)
	if sd.form == nil {
		// Without an operator each matvec yields two moments through
		// μ_{2k} = 2⟨α_k, α_k⟩ - μ_0 and μ_{2k+1} = 2⟨α_{k+1}, α_k⟩ - μ_1.
		mu0, mu1 := s.moments[0][0], s.moments[1][0]
		for k := mStart / 2; k < m/2; k++ {
			sd.ham.MatVec(tmp, alphaNext)
			for i := range tmp {
				tmp[i] = 2*tmp[i] - alpha[i]
			}
			alpha, alphaNext, tmp = alphaNext, tmp, alpha
			s.moments[2*k] = []complex128{2*vdot(alpha, alpha) - mu0}
			s.moments[2*k+1] = []complex128{2*vdot(alphaNext, alpha) - mu1}
		}
		if m%2 == 1 {
			s.moments[m-1] = []complex128{2*vdot(alphaNext, alphaNext) - mu0}
		}
	} else {
		for k := mStart; k < m; k++ {
			sd.ham.MatVec(tmp, alphaNext)
			for i := range tmp {
				tmp[i] = 2*tmp[i] - alpha[i]
			}
			alpha, alphaNext, tmp = alphaNext, tmp, alpha
			s.moments[k] = sd.form.Apply(s.vec, alphaNext)
		}
	}
	s.prev, s.last = alpha, alphaNext
}

// normalizedMoments aggregates the raw moments over all probe slots and
// normalizes them: averaged over the random vectors, divided by the matrix
// dimension and by the rescale factor. The result has one row per moment
// with outDim columns. Callers must hold at least a read lock.
func (sd *SpectralDensity) normalizedMoments() [][]float64 {
	norm := 1 / (float64(sd.numRandVecs) * float64(sd.dim) * sd.a)
	out := make([][]float64, sd.numMoments)
	for k := range out {
		row := make([]float64, sd.outDim)
		for r := 0; r < sd.numRandVecs; r++ {
			for j, v := range sd.slots[r].moments[k] {
				row[j] += real(v)
			}
		}
		for j := range row {
			row[j] *= norm
		}
		out[k] = row
	}
	return out
}

// vdot is the conjugated inner product ⟨x, y⟩.
func vdot(x, y []complex128) complex128 {
	var sum complex128
	for i := range x {
		sum += cmplx.Conj(x[i]) * y[i]
	}
	return sum
}
