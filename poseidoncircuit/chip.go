// Package poseidoncircuit encodes the Poseidon permutation as rows of the
// generic main gate. The Chip schedules individual rounds; the Synthesizer
// layers the sponge (absorb/squeeze) on top of it.
package poseidoncircuit

import (
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/snarkify/poseidon-circuit/field"
	"github.com/snarkify/poseidon-circuit/maingate"
	"github.com/snarkify/poseidon-circuit/poseidon"
)

// Chip encodes one Poseidon permutation as an ordered run of main-gate rows,
// carrying its state cells between rows. A Chip is created per synthesis run
// and discarded after producing the final state.
type Chip struct {
	gate   *maingate.MainGate
	engine field.Field
	params *poseidon.Params
	state  []maingate.AssignedValue

	one    constraint.Element
	negOne constraint.Element
}

func NewChip(gate *maingate.MainGate, params *poseidon.Params) (*Chip, error) {
	if gate.T() != params.T {
		return nil, fmt.Errorf("%w: gate width %d, parameter width %d", poseidon.ErrConfiguration, gate.T(), params.T)
	}
	engine := gate.Engine()
	one := engine.One()
	return &Chip{
		gate:   gate,
		engine: engine,
		params: params,
		one:    one,
		negOne: engine.Neg(one),
	}, nil
}

// Initialize loads the initial T-length state as witness values on an
// identity row, anchoring the wiring graph.
func (c *Chip) Initialize(ctx *maingate.RegionCtx, values []constraint.Element) error {
	if len(values) != c.params.T {
		return fmt.Errorf("%w: initial state has %d entries, want %d", poseidon.ErrConfiguration, len(values), c.params.T)
	}
	cells, err := c.gate.AssignWitnessRow(ctx, values)
	if err != nil {
		return err
	}
	c.state = cells
	return nil
}

// SetState adopts already-assigned cells as the chip state, used to chain a
// permutation onto cells produced elsewhere in the circuit.
func (c *Chip) SetState(cells []maingate.AssignedValue) error {
	if len(cells) != c.params.T {
		return fmt.Errorf("%w: state has %d entries, want %d", poseidon.ErrConfiguration, len(cells), c.params.T)
	}
	c.state = append([]maingate.AssignedValue(nil), cells...)
	return nil
}

// Finalize returns the last computed state; the sponge layer selects which
// entry is the digest.
func (c *Chip) Finalize() ([]maingate.AssignedValue, error) {
	if c.state == nil {
		return nil, fmt.Errorf("%w: chip state not initialized", poseidon.ErrConfiguration)
	}
	return append([]maingate.AssignedValue(nil), c.state...), nil
}

// Permute runs the full canonical round schedule on the current state. The
// schedule is checked against the parameter round counts before any row is
// emitted.
func (c *Chip) Permute(ctx *maingate.RegionCtx) error {
	if c.state == nil {
		return fmt.Errorf("%w: chip state not initialized", poseidon.ErrConfiguration)
	}
	if len(c.params.Rounds) != c.params.RF+c.params.RP {
		return fmt.Errorf("%w: %d rounds provided, want %d full + %d partial",
			poseidon.ErrConfiguration, len(c.params.Rounds), c.params.RF, c.params.RP)
	}
	for _, round := range c.params.Rounds {
		if len(round.Constants) != c.params.T {
			return fmt.Errorf("%w: round constants vector has length %d, want %d",
				poseidon.ErrConfiguration, len(round.Constants), c.params.T)
		}
	}
	for _, round := range c.params.Rounds {
		var err error
		if round.Kind == poseidon.Full {
			err = c.ApplyFullRound(ctx, round.Constants)
		} else {
			err = c.ApplyPartialRound(ctx, round.Constants)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyFullRound advances the state by one full round: add the round
// constants elementwise, raise every entry to the fifth power, then mix
// through the matrix.
func (c *Chip) ApplyFullRound(ctx *maingate.RegionCtx, constants []constraint.Element) error {
	return c.applyRound(ctx, constants, true)
}

// ApplyPartialRound is identical to a full round except that only state
// entry 0 receives the nonlinear layer.
func (c *Chip) ApplyPartialRound(ctx *maingate.RegionCtx, constants []constraint.Element) error {
	return c.applyRound(ctx, constants, false)
}

func (c *Chip) applyRound(ctx *maingate.RegionCtx, constants []constraint.Element, full bool) error {
	if c.state == nil {
		return fmt.Errorf("%w: chip state not initialized", poseidon.ErrConfiguration)
	}
	if len(constants) != c.params.T {
		return fmt.Errorf("%w: round constants vector has length %d, want %d",
			poseidon.ErrConfiguration, len(constants), c.params.T)
	}
	z, err := c.addRoundConstants(ctx, constants)
	if err != nil {
		return err
	}
	y, err := c.applySBox(ctx, z, full)
	if err != nil {
		return err
	}
	s, err := c.applyMix(ctx, y)
	if err != nil {
		return err
	}
	c.state = s
	return nil
}

// addRoundConstants emits one row per state entry computing
// out = s[j] + rc[j], with q_1 the unit vector at j.
func (c *Chip) addRoundConstants(ctx *maingate.RegionCtx, constants []constraint.Element) ([]maingate.AssignedValue, error) {
	t := c.params.T
	out := make([]maingate.AssignedValue, t)
	for j := 0; j < t; j++ {
		wraps := make([]maingate.WrapValue, t)
		for i := range wraps {
			wraps[i] = maingate.Zero()
		}
		wraps[j] = maingate.Assigned(c.state[j])
		sum := c.engine.Add(c.state[j].Value, constants[j])
		av, err := c.gate.Apply(ctx,
			maingate.Selectors{Q1: c.unit(j), Rc: constants[j], Qo: c.negOne},
			wraps, maingate.Zero(), maingate.Unassigned(sum))
		if err != nil {
			return nil, err
		}
		out[j] = av
	}
	return out, nil
}

// applySBox emits one row per affected entry computing out = z[j]^5, with
// q_5 the unit vector at j. Unaffected entries pass through by cell reuse.
func (c *Chip) applySBox(ctx *maingate.RegionCtx, cells []maingate.AssignedValue, full bool) ([]maingate.AssignedValue, error) {
	t := c.params.T
	out := append([]maingate.AssignedValue(nil), cells...)
	n := 1
	if full {
		n = t
	}
	for j := 0; j < n; j++ {
		wraps := make([]maingate.WrapValue, t)
		for i := range wraps {
			wraps[i] = maingate.Zero()
		}
		wraps[j] = maingate.Assigned(cells[j])
		x2 := c.engine.Mul(cells[j].Value, cells[j].Value)
		x4 := c.engine.Mul(x2, x2)
		x5 := c.engine.Mul(x4, cells[j].Value)
		av, err := c.gate.Apply(ctx,
			maingate.Selectors{Q5: c.unit(j), Qo: c.negOne},
			wraps, maingate.Zero(), maingate.Unassigned(x5))
		if err != nil {
			return nil, err
		}
		out[j] = av
	}
	return out, nil
}

// applyMix emits one row per output entry computing
// out = sum_j mds[i][j]*y[j], with q_1 set to matrix row i.
func (c *Chip) applyMix(ctx *maingate.RegionCtx, cells []maingate.AssignedValue) ([]maingate.AssignedValue, error) {
	t := c.params.T
	out := make([]maingate.AssignedValue, t)
	for i := 0; i < t; i++ {
		wraps := make([]maingate.WrapValue, t)
		sum := c.engine.Mul(c.params.Mds[i][0], cells[0].Value)
		wraps[0] = maingate.Assigned(cells[0])
		for j := 1; j < t; j++ {
			sum = c.engine.Add(sum, c.engine.Mul(c.params.Mds[i][j], cells[j].Value))
			wraps[j] = maingate.Assigned(cells[j])
		}
		av, err := c.gate.Apply(ctx,
			maingate.Selectors{Q1: c.params.Mds[i], Qo: c.negOne},
			wraps, maingate.Zero(), maingate.Unassigned(sum))
		if err != nil {
			return nil, err
		}
		out[i] = av
	}
	return out, nil
}

func (c *Chip) unit(j int) []constraint.Element {
	q := make([]constraint.Element, c.params.T)
	q[j] = c.one
	return q
}
