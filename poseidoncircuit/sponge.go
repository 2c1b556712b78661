package poseidoncircuit

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/logger"

	"github.com/snarkify/poseidon-circuit/field"
	"github.com/snarkify/poseidon-circuit/maingate"
	"github.com/snarkify/poseidon-circuit/poseidon"
)

// ErrInputLength reports absorbed input exceeding the permitted rate for the
// configured mode. It is raised before any row is emitted.
var ErrInputLength = errors.New("poseidoncircuit: input exceeds rate")

// Synthesizer maps an input sequence to a digest via absorb-then-squeeze
// over the Poseidon chip. Inputs fill state indices [1..T); index 0 is the
// capacity/domain-separation slot. The digest is state entry 0 after the
// final permutation, exposed as a public output of the circuit.
type Synthesizer struct {
	gate   *maingate.MainGate
	engine field.Field
	params *poseidon.Params

	absorbed    []constraint.Element
	singleBlock bool
}

type Option func(*Synthesizer)

// WithSingleBlock restricts the synthesizer to one permutation; absorbing
// more than T-1 inputs then fails with ErrInputLength.
func WithSingleBlock() Option {
	return func(s *Synthesizer) {
		s.singleBlock = true
	}
}

func NewSynthesizer(gate *maingate.MainGate, params *poseidon.Params, opts ...Option) (*Synthesizer, error) {
	if gate.T() != params.T {
		return nil, fmt.Errorf("%w: gate width %d, parameter width %d", poseidon.ErrConfiguration, gate.T(), params.T)
	}
	s := &Synthesizer{gate: gate, engine: gate.Engine(), params: params}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Update buffers input elements for the next Squeeze. No rows are emitted.
func (s *Synthesizer) Update(values ...constraint.Element) {
	s.absorbed = append(s.absorbed, values...)
}

// Squeeze absorbs the buffered input and returns the digest cell. Blocks are
// processed strictly in order: each block's absorb rows take the previous
// permutation's output cells as wired state, so a multi-block digest can only
// be produced sequentially. On error no further input is retained.
func (s *Synthesizer) Squeeze(ctx *maingate.RegionCtx) (maingate.AssignedValue, error) {
	rate := s.params.Rate()
	if s.singleBlock && len(s.absorbed) > rate {
		return maingate.AssignedValue{}, fmt.Errorf("%w: %d inputs, rate is %d",
			ErrInputLength, len(s.absorbed), rate)
	}
	blocks := poseidon.SplitBlocks(s.absorbed, rate)
	s.absorbed = nil

	chip, err := NewChip(s.gate, s.params)
	if err != nil {
		return maingate.AssignedValue{}, err
	}
	for bi, block := range blocks {
		if bi == 0 {
			init := make([]constraint.Element, s.params.T)
			for j, v := range block {
				init[j+1] = v
			}
			err = chip.Initialize(ctx, init)
		} else {
			err = s.absorbBlock(ctx, chip, block)
		}
		if err != nil {
			return maingate.AssignedValue{}, err
		}
		if err = chip.Permute(ctx); err != nil {
			return maingate.AssignedValue{}, err
		}
	}
	state, err := chip.Finalize()
	if err != nil {
		return maingate.AssignedValue{}, err
	}
	digest := state[0]
	if err = ctx.Circuit().MarkPublic(digest.Cell); err != nil {
		return maingate.AssignedValue{}, err
	}

	log := logger.Logger()
	log.Debug().
		Int("rows", ctx.Offset()).
		Int("blocks", len(blocks)).
		Int("width", s.params.T).
		Msg("poseidon synthesis complete")
	return digest, nil
}

// absorbBlock adds the block into the rate portion of the chip state. Each
// absorb row computes out = s[j+1] + m[j] through the gate's input column;
// the previous state cell enters as wired (Assigned) advice, which is what
// enforces in-order chaining across blocks.
func (s *Synthesizer) absorbBlock(ctx *maingate.RegionCtx, chip *Chip, block []constraint.Element) error {
	state, err := chip.Finalize()
	if err != nil {
		return err
	}
	one := s.engine.One()
	negOne := s.engine.Neg(one)
	for j, m := range block {
		t := s.params.T
		wraps := make([]maingate.WrapValue, t)
		for i := range wraps {
			wraps[i] = maingate.Zero()
		}
		wraps[j+1] = maingate.Assigned(state[j+1])
		q1 := make([]constraint.Element, t)
		q1[j+1] = one
		sum := s.engine.Add(state[j+1].Value, m)
		av, err := s.gate.Apply(ctx,
			maingate.Selectors{Q1: q1, Qi: one, Qo: negOne},
			wraps, maingate.Unassigned(m), maingate.Unassigned(sum))
		if err != nil {
			return err
		}
		state[j+1] = av
	}
	return chip.SetState(state)
}
