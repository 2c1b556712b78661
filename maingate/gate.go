// Package maingate implements the single generic constraint gate shared by
// every row of the circuit:
//
//	q_m*s[0]*s[1] + sum_i(q_1[i]*s[i]) + sum_i(q_5[i]*s[i]^5) + rc + q_i*input + q_o*output = 0
//
// All chip operations (add-round-constant, nonlinear layer, linear
// combination) are expressed purely by choice of selector values; there are
// no per-operation gate variants. The q_m term is unused by the Poseidon
// chip, which always supplies zero for it; it is part of the generic relation
// nonetheless.
package maingate

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/snarkify/poseidon-circuit/field"
)

// ErrConfiguration reports a misuse of the gate or circuit layout: mis-sized
// selector vectors, width mismatches, out-of-range cell references.
var ErrConfiguration = errors.New("maingate: invalid configuration")

// ConstraintError reports a row whose witness does not satisfy the gate
// relation. It carries the offending row index and the value of each term of
// the relation, so the failing term can be read off directly.
type ConstraintError struct {
	Row     int
	Residue string
	Terms   string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("maingate: relation not satisfied at row %d: residue=%s (%s)", e.Row, e.Residue, e.Terms)
}

// Selectors holds the fixed values of one row. Nil Q1/Q5 stand for all-zero
// vectors; zero-value scalars deactivate their terms.
type Selectors struct {
	Q1 []constraint.Element
	Q5 []constraint.Element
	Qm constraint.Element
	Qi constraint.Element
	Qo constraint.Element
	Rc constraint.Element
}

// MainGate is the column/selector layout of the generic gate, fixed once at
// configuration time for a given state width.
type MainGate struct {
	engine field.Field
	t      int
}

func New(engine field.Field, t int) (*MainGate, error) {
	if t < 2 {
		return nil, fmt.Errorf("%w: state width must be at least 2, got %d", ErrConfiguration, t)
	}
	return &MainGate{engine: engine, t: t}, nil
}

func (g *MainGate) T() int {
	return g.t
}

func (g *MainGate) Engine() field.Field {
	return g.engine
}

// StateCol returns the column index of state entry i.
func (g *MainGate) StateCol(i int) int {
	return i
}

func (g *MainGate) InputCol() int {
	return g.t
}

func (g *MainGate) OutputCol() int {
	return g.t + 1
}

// Apply appends exactly one row to the circuit: it assigns the given
// selectors and advice values, runs the local relation check, and returns the
// assigned output cell. Assigned advice values are wired to their source
// cells with equality edges. On any error no row is appended.
func (g *MainGate) Apply(ctx *RegionCtx, sel Selectors, state []WrapValue, input, output WrapValue) (AssignedValue, error) {
	c := ctx.circuit
	if c.t != g.t {
		return AssignedValue{}, fmt.Errorf("%w: circuit width %d, gate width %d", ErrConfiguration, c.t, g.t)
	}
	q1, err := g.selectorVector(sel.Q1)
	if err != nil {
		return AssignedValue{}, err
	}
	q5, err := g.selectorVector(sel.Q5)
	if err != nil {
		return AssignedValue{}, err
	}
	if len(state) != g.t {
		return AssignedValue{}, fmt.Errorf("%w: state has %d entries, want %d", ErrConfiguration, len(state), g.t)
	}

	idx := c.NbRows()
	row := Row{
		Q1: q1, Q5: q5,
		Qm: sel.Qm, Qi: sel.Qi, Qo: sel.Qo, Rc: sel.Rc,
		State: make([]constraint.Element, g.t),
	}
	var edges [][2]CellRef
	place := func(w WrapValue, col int) error {
		if w.kind != wrapAssigned {
			return nil
		}
		if w.cell.Row < 0 || w.cell.Row >= idx || w.cell.Col < 0 || w.cell.Col >= g.t+2 {
			return fmt.Errorf("%w: assigned cell (%d,%d) does not exist", ErrConfiguration, w.cell.Row, w.cell.Col)
		}
		edges = append(edges, [2]CellRef{{Row: idx, Col: col}, w.cell})
		return nil
	}
	for i, w := range state {
		if w.kind != wrapZero {
			row.State[i] = w.value
		}
		if err := place(w, g.StateCol(i)); err != nil {
			return AssignedValue{}, err
		}
	}
	if input.kind != wrapZero {
		row.Input = input.value
	}
	if err := place(input, g.InputCol()); err != nil {
		return AssignedValue{}, err
	}
	if output.kind != wrapZero {
		row.Output = output.value
	}
	if err := place(output, g.OutputCol()); err != nil {
		return AssignedValue{}, err
	}

	if err := CheckRow(g.engine, row, idx); err != nil {
		return AssignedValue{}, err
	}

	c.appendRow(row)
	for _, e := range edges {
		c.addCopy(e[0], e[1])
	}
	return AssignedValue{Cell: CellRef{Row: idx, Col: g.OutputCol()}, Value: row.Output}, nil
}

// AssignWitnessRow appends an identity row: all selectors zero, the given
// values loaded into the state columns. It anchors the wiring graph without
// constraining anything.
func (g *MainGate) AssignWitnessRow(ctx *RegionCtx, values []constraint.Element) ([]AssignedValue, error) {
	c := ctx.circuit
	if c.t != g.t {
		return nil, fmt.Errorf("%w: circuit width %d, gate width %d", ErrConfiguration, c.t, g.t)
	}
	if len(values) != g.t {
		return nil, fmt.Errorf("%w: witness row has %d values, want %d", ErrConfiguration, len(values), g.t)
	}
	idx := c.appendRow(Row{
		Q1:    make([]constraint.Element, g.t),
		Q5:    make([]constraint.Element, g.t),
		State: append([]constraint.Element(nil), values...),
	})
	cells := make([]AssignedValue, g.t)
	for i := range cells {
		cells[i] = AssignedValue{Cell: CellRef{Row: idx, Col: g.StateCol(i)}, Value: values[i]}
	}
	return cells, nil
}

func (g *MainGate) selectorVector(q []constraint.Element) ([]constraint.Element, error) {
	if q == nil {
		return make([]constraint.Element, g.t), nil
	}
	if len(q) != g.t {
		return nil, fmt.Errorf("%w: selector vector has length %d, want %d", ErrConfiguration, len(q), g.t)
	}
	return append([]constraint.Element(nil), q...), nil
}

func pow5(engine field.Field, x constraint.Element) constraint.Element {
	x2 := engine.Mul(x, x)
	x4 := engine.Mul(x2, x2)
	return engine.Mul(x4, x)
}

// EvalRow evaluates the gate relation on a row and returns the residue; zero
// means the row is satisfied.
func EvalRow(engine field.Field, row Row) constraint.Element {
	res := engine.Mul(engine.Mul(row.Qm, row.State[0]), row.State[1])
	for i := range row.State {
		res = engine.Add(res, engine.Mul(row.Q1[i], row.State[i]))
		res = engine.Add(res, engine.Mul(row.Q5[i], pow5(engine, row.State[i])))
	}
	res = engine.Add(res, row.Rc)
	res = engine.Add(res, engine.Mul(row.Qi, row.Input))
	res = engine.Add(res, engine.Mul(row.Qo, row.Output))
	return res
}

// CheckRow evaluates the gate relation on a row and, if it does not vanish,
// returns a ConstraintError describing every term.
func CheckRow(engine field.Field, row Row, idx int) error {
	res := EvalRow(engine, row)
	if res.IsZero() {
		return nil
	}
	tQm := engine.Mul(engine.Mul(row.Qm, row.State[0]), row.State[1])
	var tQ1, tQ5 constraint.Element
	for i := range row.State {
		tQ1 = engine.Add(tQ1, engine.Mul(row.Q1[i], row.State[i]))
		tQ5 = engine.Add(tQ5, engine.Mul(row.Q5[i], pow5(engine, row.State[i])))
	}
	tQi := engine.Mul(row.Qi, row.Input)
	tQo := engine.Mul(row.Qo, row.Output)
	return &ConstraintError{
		Row:     idx,
		Residue: engine.String(res),
		Terms: fmt.Sprintf("q_m*s0*s1=%s q_1*s=%s q_5*s^5=%s rc=%s q_i*input=%s q_o*output=%s",
			engine.String(tQm), engine.String(tQ1), engine.String(tQ5),
			engine.String(row.Rc), engine.String(tQi), engine.String(tQo)),
	}
}
