package poseidoncircuit

import (
	"testing"

	"github.com/consensys/gnark/constraint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarkify/poseidon-circuit/checker"
	"github.com/snarkify/poseidon-circuit/field"
	"github.com/snarkify/poseidon-circuit/field/bn254"
	"github.com/snarkify/poseidon-circuit/maingate"
	"github.com/snarkify/poseidon-circuit/poseidon"
)

func setup(t *testing.T, width int) (field.Field, *poseidon.Params, *maingate.MainGate) {
	engine := &bn254.Field{}
	params, err := poseidon.NewParams(engine, width, poseidon.SecurityLevel128)
	require.NoError(t, err)
	gate, err := maingate.New(engine, width)
	require.NoError(t, err)
	return engine, params, gate
}

func TestPermuteMatchesHasher(t *testing.T) {
	for _, width := range []int{3, 5} {
		engine, params, gate := setup(t, width)

		init := make([]constraint.Element, width)
		for i := range init {
			init[i] = engine.FromInterface(i)
		}

		circuit := maingate.NewCircuit(width)
		ctx := maingate.NewRegionCtx(circuit)
		chip, err := NewChip(gate, params)
		require.NoError(t, err)
		require.NoError(t, chip.Initialize(ctx, init))
		require.NoError(t, chip.Permute(ctx))
		state, err := chip.Finalize()
		require.NoError(t, err)

		want, err := poseidon.NewHasher(engine, params).Permutation(init)
		require.NoError(t, err)
		for i := range want {
			assert.Equal(t, want[i], state[i].Value, "width %d entry %d", width, i)
		}

		require.NoError(t, checker.Check(engine, circuit))
	}
}

func TestPermuteRowCount(t *testing.T) {
	_, params, gate := setup(t, 3)

	circuit := maingate.NewCircuit(3)
	ctx := maingate.NewRegionCtx(circuit)
	chip, err := NewChip(gate, params)
	require.NoError(t, err)
	require.NoError(t, chip.Initialize(ctx, make([]constraint.Element, 3)))
	require.NoError(t, chip.Permute(ctx))

	// identity row + 3T per full round + 2T+1 per partial round
	want := 1 + params.RF*3*3 + params.RP*(2*3+1)
	assert.Equal(t, want, circuit.NbRows())
}

func TestRoundCountMismatch(t *testing.T) {
	_, params, gate := setup(t, 3)

	// drop the last round behind the back of the validated parameter set
	broken := *params
	broken.Rounds = broken.Rounds[:len(broken.Rounds)-1]

	circuit := maingate.NewCircuit(3)
	ctx := maingate.NewRegionCtx(circuit)
	chip, err := NewChip(gate, &broken)
	require.NoError(t, err)
	require.NoError(t, chip.Initialize(ctx, make([]constraint.Element, 3)))
	before := ctx.Offset()

	err = chip.Permute(ctx)
	assert.ErrorIs(t, err, poseidon.ErrConfiguration)
	// the failure must precede any row emission
	assert.Equal(t, before, ctx.Offset())
}

func TestChipWidthMismatch(t *testing.T) {
	engine, params, _ := setup(t, 3)
	gate5, err := maingate.New(engine, 5)
	require.NoError(t, err)
	_, err = NewChip(gate5, params)
	assert.ErrorIs(t, err, poseidon.ErrConfiguration)
}

func TestChipRequiresInitialize(t *testing.T) {
	_, params, gate := setup(t, 3)
	chip, err := NewChip(gate, params)
	require.NoError(t, err)

	ctx := maingate.NewRegionCtx(maingate.NewCircuit(3))
	assert.ErrorIs(t, chip.Permute(ctx), poseidon.ErrConfiguration)
	_, err = chip.Finalize()
	assert.ErrorIs(t, err, poseidon.ErrConfiguration)
}

func TestTamperedWitnessBreaksRelation(t *testing.T) {
	engine, params, gate := setup(t, 3)

	circuit := maingate.NewCircuit(3)
	ctx := maingate.NewRegionCtx(circuit)
	chip, err := NewChip(gate, params)
	require.NoError(t, err)
	init := []constraint.Element{
		engine.FromInterface(0), engine.FromInterface(1), engine.FromInterface(2),
	}
	require.NoError(t, chip.Initialize(ctx, init))
	require.NoError(t, chip.Permute(ctx))

	// row 1 is the first add-round-constant row; its state cell 0 is
	// constrained by q_1
	row := circuit.Row(1)
	res := maingate.EvalRow(engine, row)
	require.True(t, res.IsZero())
	row.State[0] = engine.Add(row.State[0], engine.One())
	err = maingate.CheckRow(engine, row, 1)
	require.Error(t, err)

	var cerr *maingate.ConstraintError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Row)
}

func TestChipDeterminism(t *testing.T) {
	engine, params, gate := setup(t, 3)

	run := func() *maingate.Circuit {
		circuit := maingate.NewCircuit(3)
		ctx := maingate.NewRegionCtx(circuit)
		chip, err := NewChip(gate, params)
		require.NoError(t, err)
		require.NoError(t, chip.Initialize(ctx, []constraint.Element{
			engine.FromInterface(9), engine.FromInterface(8), engine.FromInterface(7),
		}))
		require.NoError(t, chip.Permute(ctx))
		return circuit
	}

	a, b := run(), run()
	assert.Equal(t, a.Rows(), b.Rows())
	assert.Equal(t, a.Copies(), b.Copies())
}
