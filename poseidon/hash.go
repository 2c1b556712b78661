package poseidon

import (
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/snarkify/poseidon-circuit/field"
)

// Hasher computes the Poseidon permutation and sponge directly over field
// values, with no constraint-system bookkeeping. It is value-identical to
// the circuit for every valid input and parameter set, and serves as the
// comparison oracle in tests.
type Hasher struct {
	engine field.Field
	params *Params
}

func NewHasher(engine field.Field, params *Params) *Hasher {
	return &Hasher{engine: engine, params: params}
}

func sBox(engine field.Field, x constraint.Element) constraint.Element {
	x2 := engine.Mul(x, x)
	x4 := engine.Mul(x2, x2)
	return engine.Mul(x4, x)
}

func applyMatrix(engine field.Field, state []constraint.Element, m [][]constraint.Element) []constraint.Element {
	tmp := make([]constraint.Element, len(state))
	for i := 0; i < len(state); i++ {
		tmp[i] = engine.Mul(m[i][0], state[0])
		for j := 1; j < len(state); j++ {
			tmp[i] = engine.Add(tmp[i], engine.Mul(m[i][j], state[j]))
		}
	}
	return tmp
}

// Permutation applies the full round schedule to a length-T state and
// returns the new state. Each round adds its constants, applies the
// nonlinear layer (every entry in full rounds, entry 0 in partial rounds),
// and mixes the state through the matrix, in that order.
func (h *Hasher) Permutation(state []constraint.Element) ([]constraint.Element, error) {
	if len(state) != h.params.T {
		return nil, fmt.Errorf("%w: state has %d entries, want %d", ErrConfiguration, len(state), h.params.T)
	}
	s := append([]constraint.Element(nil), state...)
	for _, round := range h.params.Rounds {
		for i := range s {
			s[i] = h.engine.Add(s[i], round.Constants[i])
		}
		if round.Kind == Full {
			for i := range s {
				s[i] = sBox(h.engine, s[i])
			}
		} else {
			s[0] = sBox(h.engine, s[0])
		}
		s = applyMatrix(h.engine, s, h.params.Mds)
	}
	return s, nil
}

// Hash absorbs the inputs in blocks of T-1 entries (state entry 0 is the
// capacity slot), running one permutation per block, and squeezes entry 0 of
// the final state. Inputs are fixed-length; no padding is applied. An empty
// input runs a single permutation over the zero state.
func (h *Hasher) Hash(inputs []constraint.Element) (constraint.Element, error) {
	state := make([]constraint.Element, h.params.T)
	var err error
	for _, block := range SplitBlocks(inputs, h.params.Rate()) {
		for j, v := range block {
			state[j+1] = h.engine.Add(state[j+1], v)
		}
		state, err = h.Permutation(state)
		if err != nil {
			return constraint.Element{}, err
		}
	}
	return state[0], nil
}

// SplitBlocks cuts the input into rate-sized blocks; the last block may be
// shorter. An empty input yields one empty block.
func SplitBlocks(inputs []constraint.Element, rate int) [][]constraint.Element {
	if len(inputs) == 0 {
		return [][]constraint.Element{nil}
	}
	var blocks [][]constraint.Element
	for off := 0; off < len(inputs); off += rate {
		end := off + rate
		if end > len(inputs) {
			end = len(inputs)
		}
		blocks = append(blocks, inputs[off:end])
	}
	return blocks
}
