package policy

import (
	"math"
	"math/rand"
)

// Distribution is a categorical distribution over action indices.
type Distribution []float64

// Softmax turns logits into a distribution.
func Softmax(logits []float64) Distribution {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	out := make(Distribution, len(logits))
	total := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// Mode returns the most probable index, preferring the lowest on ties.
func (d Distribution) Mode() int {
	best := 0
	for i, p := range d {
		if p > d[best] {
			best = i
		}
	}
	return best
}

// Sample draws an index by inverse CDF using one draw from rng.
func (d Distribution) Sample(rng *rand.Rand) int {
	if len(d) == 0 {
		return 0
	}
	u := rng.Float64()
	acc := 0.0
	for i, p := range d {
		acc += p
		if u < acc {
			return i
		}
	}
	return len(d) - 1
}

// Choose picks the mode when deterministic and samples otherwise.
func (d Distribution) Choose(deterministic bool, rng *rand.Rand) int {
	if deterministic || rng == nil {
		return d.Mode()
	}
	return d.Sample(rng)
}
