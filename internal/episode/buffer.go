// Package episode runs full planning episodes: MPPI in lockstep with a
// ground-truth simulation, discounted-return computation bootstrapped by
// the value estimator, and replay-buffer accumulation for retraining it.
package episode

// Buffer is an append-only replay buffer of (observation, return) pairs.
//
// Growth doubles capacity, so appending a whole episode is amortized
// constant per pair. There is no eviction: runs are finite, and the value
// estimator retrains on the entire buffer after every episode. If a
// windowing policy is ever needed it belongs here, as an explicit policy,
// not as a side effect of resizing.
type Buffer struct {
	obs     [][]float64
	returns []float64
}

// Append adds one episode's pairs. Observations are copied; the caller may
// reuse its slices.
func (b *Buffer) Append(observations [][]float64, returns []float64) {
	if len(observations) != len(returns) {
		panic("episode: observation/return count mismatch")
	}
	b.grow(len(returns))
	for i, o := range observations {
		b.obs = append(b.obs, append([]float64(nil), o...))
		b.returns = append(b.returns, returns[i])
	}
}

// grow ensures room for n more pairs, doubling capacity until it fits.
func (b *Buffer) grow(n int) {
	need := len(b.returns) + n
	if need <= cap(b.returns) {
		return
	}
	newCap := cap(b.returns)
	if newCap == 0 {
		newCap = need
	}
	for newCap < need {
		newCap *= 2
	}
	obs := make([][]float64, len(b.obs), newCap)
	copy(obs, b.obs)
	b.obs = obs
	returns := make([]float64, len(b.returns), newCap)
	copy(returns, b.returns)
	b.returns = returns
}

// Len returns the number of stored pairs.
func (b *Buffer) Len() int { return len(b.returns) }

// Observations returns the stored observations. The slice is owned by the
// buffer; callers must treat it as read-only.
func (b *Buffer) Observations() [][]float64 { return b.obs }

// Returns returns the stored returns, read-only for callers.
func (b *Buffer) Returns() []float64 { return b.returns }
