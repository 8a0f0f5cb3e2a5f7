package policy

import (
	"fmt"
	"math"
	"math/rand"

	"oaiagents/internal/model"
)

const ArchitectureElman = "elman"

// Elman is a single-layer recurrent policy:
//
//	h' = tanh(Wx·x + Wh·h + bh)
//	p  = softmax(Wo·h' + bo)
type Elman struct {
	spec model.NetworkSpec
	wx   *param
	wh   *param
	bh   *param
	wo   *param
	bo   *param
}

func newElman(spec model.NetworkSpec, rng *rand.Rand) (Network, error) {
	if spec.Hidden <= 0 {
		return nil, fmt.Errorf("elman network needs hidden > 0, got %d", spec.Hidden)
	}
	return &Elman{
		spec: spec,
		wx:   newParam("wx", rng, spec.Inputs, spec.Hidden, spec.Inputs),
		wh:   newParam("wh", rng, spec.Hidden, spec.Hidden, spec.Hidden),
		bh:   newParam("bh", nil, 0, spec.Hidden),
		wo:   newParam("wo", rng, spec.Hidden, spec.Outputs, spec.Hidden),
		bo:   newParam("bo", nil, 0, spec.Outputs),
	}, nil
}

func (e *Elman) Spec() model.NetworkSpec { return e.spec }
func (e *Elman) Recurrent() bool         { return true }

func (e *Elman) InitialState() State {
	return make(State, e.spec.Hidden)
}

func (e *Elman) Forward(features []float64, state State) (Distribution, State, error) {
	if len(features) != e.spec.Inputs {
		return nil, nil, fmt.Errorf("input size mismatch: got=%d want=%d", len(features), e.spec.Inputs)
	}
	if state == nil {
		state = e.InitialState()
	}
	if len(state) != e.spec.Hidden {
		return nil, nil, fmt.Errorf("hidden state size mismatch: got=%d want=%d", len(state), e.spec.Hidden)
	}

	pre := affine(e.wx.data, e.bh.data, features, e.spec.Hidden, e.spec.Inputs)
	rec := affine(e.wh.data, make([]float64, e.spec.Hidden), state, e.spec.Hidden, e.spec.Hidden)
	next := make(State, e.spec.Hidden)
	for i := range next {
		next[i] = math.Tanh(pre[i] + rec[i])
	}
	logits := affine(e.wo.data, e.bo.data, next, e.spec.Outputs, e.spec.Hidden)
	return Softmax(logits), next, nil
}

func (e *Elman) StateDict() model.StateDict {
	return stateDictOf(e.wx, e.wh, e.bh, e.wo, e.bo)
}

func (e *Elman) LoadStateDict(dict model.StateDict) error {
	return loadInto(dict, e.wx, e.wh, e.bh, e.wo, e.bo)
}
