package policy

import (
	"fmt"
	"math"
	"math/rand"

	"oaiagents/internal/model"
)

const ArchitectureLinear = "linear"

// Linear is a stateless softmax policy over W·x + b.
type Linear struct {
	spec model.NetworkSpec
	w    *param
	b    *param
}

func newLinear(spec model.NetworkSpec, rng *rand.Rand) (Network, error) {
	return &Linear{
		spec: spec,
		w:    newParam("w", rng, spec.Inputs, spec.Outputs, spec.Inputs),
		b:    newParam("b", nil, 0, spec.Outputs),
	}, nil
}

func (l *Linear) Spec() model.NetworkSpec { return l.spec }
func (l *Linear) Recurrent() bool         { return false }
func (l *Linear) InitialState() State     { return nil }

func (l *Linear) Forward(features []float64, _ State) (Distribution, State, error) {
	if len(features) != l.spec.Inputs {
		return nil, nil, fmt.Errorf("input size mismatch: got=%d want=%d", len(features), l.spec.Inputs)
	}
	logits := affine(l.w.data, l.b.data, features, l.spec.Outputs, l.spec.Inputs)
	return Softmax(logits), nil, nil
}

func (l *Linear) StateDict() model.StateDict {
	return stateDictOf(l.w, l.b)
}

func (l *Linear) LoadStateDict(dict model.StateDict) error {
	return loadInto(dict, l.w, l.b)
}

func sqrt(x float64) float64 {
	return math.Sqrt(x)
}
