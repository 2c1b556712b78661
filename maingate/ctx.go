package maingate

import (
	"fmt"

	"github.com/consensys/gnark/constraint"
)

// CellRef points to an advice cell of the circuit. Columns 0..T-1 are the
// state columns, T is the input column, T+1 is the output column.
type CellRef struct {
	Row int
	Col int
}

// AssignedValue is an advice cell together with the value assigned to it.
type AssignedValue struct {
	Cell  CellRef
	Value constraint.Element
}

type wrapKind uint8

const (
	wrapZero wrapKind = iota
	wrapUnassigned
	wrapAssigned
)

// WrapValue is a cell value to be placed into a row. An Assigned value
// carries the cell it was produced in; placing it adds an equality edge
// between the old cell and the new one. A Zero value leaves the cell unused.
type WrapValue struct {
	kind  wrapKind
	value constraint.Element
	cell  CellRef
}

func Zero() WrapValue {
	return WrapValue{}
}

func Unassigned(v constraint.Element) WrapValue {
	return WrapValue{kind: wrapUnassigned, value: v}
}

func Assigned(av AssignedValue) WrapValue {
	return WrapValue{kind: wrapAssigned, value: av.Value, cell: av.Cell}
}

// RegionCtx tracks the current position in a circuit under construction.
// Row emission is strictly sequential; the offset is always the index the
// next row will get.
type RegionCtx struct {
	circuit *Circuit
}

func NewRegionCtx(c *Circuit) *RegionCtx {
	return &RegionCtx{circuit: c}
}

func (ctx *RegionCtx) Circuit() *Circuit {
	return ctx.circuit
}

func (ctx *RegionCtx) Offset() int {
	return ctx.circuit.NbRows()
}

// ConstrainEqual records an equality edge between two already-assigned cells.
// The cells must currently hold the same value.
func (ctx *RegionCtx) ConstrainEqual(a, b CellRef) error {
	va, err := ctx.circuit.Advice(a)
	if err != nil {
		return err
	}
	vb, err := ctx.circuit.Advice(b)
	if err != nil {
		return err
	}
	if va != vb {
		return fmt.Errorf("%w: cells (%d,%d) and (%d,%d) hold different values",
			ErrConfiguration, a.Row, a.Col, b.Row, b.Col)
	}
	ctx.circuit.addCopy(a, b)
	return nil
}
