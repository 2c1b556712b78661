package maingate

import (
	"fmt"

	"github.com/consensys/gnark/constraint"
)

// Row is one row of the constraint system: the fixed selector values of the
// gate relation plus the advice (witness) values assigned under them.
type Row struct {
	// selectors
	Q1 []constraint.Element
	Q5 []constraint.Element
	Qm constraint.Element
	Qi constraint.Element
	Qo constraint.Element
	Rc constraint.Element

	// advice
	State  []constraint.Element
	Input  constraint.Element
	Output constraint.Element
}

// Circuit is an append-only arena of rows plus the equality-constraint graph
// linking advice cells across rows. Rows carry positional identity; once
// appended they are never mutated.
type Circuit struct {
	t      int
	rows   []Row
	copies [][2]CellRef
	public []CellRef
}

func NewCircuit(t int) *Circuit {
	return &Circuit{t: t}
}

func (c *Circuit) T() int {
	return c.t
}

func (c *Circuit) NbRows() int {
	return len(c.rows)
}

func (c *Circuit) NbCopies() int {
	return len(c.copies)
}

// Row returns the row at index i. The returned value shares no mutable state
// with the arena.
func (c *Circuit) Row(i int) Row {
	r := c.rows[i]
	r.Q1 = append([]constraint.Element(nil), r.Q1...)
	r.Q5 = append([]constraint.Element(nil), r.Q5...)
	r.State = append([]constraint.Element(nil), r.State...)
	return r
}

// Rows returns a copy of the row sequence.
func (c *Circuit) Rows() []Row {
	rows := make([]Row, len(c.rows))
	for i := range c.rows {
		rows[i] = c.Row(i)
	}
	return rows
}

// Copies returns a copy of the equality-constraint edge list.
func (c *Circuit) Copies() [][2]CellRef {
	return append([][2]CellRef(nil), c.copies...)
}

// PublicCells returns the cells exposed as public outputs, in the order they
// were marked.
func (c *Circuit) PublicCells() []CellRef {
	return append([]CellRef(nil), c.public...)
}

// Advice resolves a cell reference to its assigned value.
func (c *Circuit) Advice(ref CellRef) (constraint.Element, error) {
	if ref.Row < 0 || ref.Row >= len(c.rows) || ref.Col < 0 || ref.Col >= c.t+2 {
		return constraint.Element{}, fmt.Errorf("%w: cell (%d,%d) out of range", ErrConfiguration, ref.Row, ref.Col)
	}
	row := c.rows[ref.Row]
	switch {
	case ref.Col < c.t:
		return row.State[ref.Col], nil
	case ref.Col == c.t:
		return row.Input, nil
	default:
		return row.Output, nil
	}
}

// MarkPublic exposes a cell as a public output of the circuit.
func (c *Circuit) MarkPublic(ref CellRef) error {
	if _, err := c.Advice(ref); err != nil {
		return err
	}
	c.public = append(c.public, ref)
	return nil
}

// PublicValues resolves the public output cells.
func (c *Circuit) PublicValues() []constraint.Element {
	vals := make([]constraint.Element, len(c.public))
	for i, ref := range c.public {
		vals[i], _ = c.Advice(ref)
	}
	return vals
}

// Validate checks the internal consistency of the wiring graph: every edge
// and public reference resolves, and every equality-constrained pair of
// cells holds identical values. It does not re-evaluate the gate relation;
// see the checker package for the full pass.
func (c *Circuit) Validate() error {
	for _, row := range c.rows {
		if len(row.State) != c.t || len(row.Q1) != c.t || len(row.Q5) != c.t {
			return fmt.Errorf("%w: row vectors must have length %d", ErrConfiguration, c.t)
		}
	}
	for _, edge := range c.copies {
		va, err := c.Advice(edge[0])
		if err != nil {
			return err
		}
		vb, err := c.Advice(edge[1])
		if err != nil {
			return err
		}
		if va != vb {
			return fmt.Errorf("%w: equality edge (%d,%d)-(%d,%d) violated",
				ErrConfiguration, edge[0].Row, edge[0].Col, edge[1].Row, edge[1].Col)
		}
	}
	for _, ref := range c.public {
		if _, err := c.Advice(ref); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) appendRow(r Row) int {
	c.rows = append(c.rows, r)
	return len(c.rows) - 1
}

func (c *Circuit) addCopy(a, b CellRef) {
	c.copies = append(c.copies, [2]CellRef{a, b})
}
