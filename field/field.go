// Package field defines the arithmetic engine used by the gate, the chip and
// the native hasher. Values are gnark constraint.Element and the engine is a
// gnark constraint.Field, so anything speaking gnark's backend types can
// consume the finished circuit directly.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint"

	"github.com/snarkify/poseidon-circuit/field/bn254"
)

type Field interface {
	constraint.Field
	Field() *big.Int
	FieldBitLen() int
}

func GetFieldFromOrder(x *big.Int) Field {
	if x.Cmp(bn254.ScalarField) == 0 {
		return &bn254.Field{}
	}
	panic(fmt.Sprintf("unknown field %v", x))
}
