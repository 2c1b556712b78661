package poseidon

import (
	"testing"

	"github.com/consensys/gnark/constraint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarkify/poseidon-circuit/field/bn254"
)

func elems(engine *bn254.Field, vs ...interface{}) []constraint.Element {
	out := make([]constraint.Element, len(vs))
	for i, v := range vs {
		out[i] = engine.FromInterface(v)
	}
	return out
}

func TestHashGoldenVector(t *testing.T) {
	engine := &bn254.Field{}

	params, err := NewParams(engine, 3, SecurityLevel128)
	require.NoError(t, err)
	digest, err := NewHasher(engine, params).Hash(elems(engine, 1, 2))
	require.NoError(t, err)
	assert.Equal(t,
		engine.FromInterface("7728388660803876315274329558048457297166584094878507719377824818806544777941"),
		digest)

	params5, err := NewParams(engine, 5, SecurityLevel128)
	require.NoError(t, err)
	digest, err = NewHasher(engine, params5).Hash(elems(engine, 1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t,
		engine.FromInterface("13410707909739971048798936766521460071022154906633501054484390494120653800572"),
		digest)
}

func TestHashMultiBlock(t *testing.T) {
	engine := &bn254.Field{}
	params, err := NewParams(engine, 3, SecurityLevel128)
	require.NoError(t, err)
	h := NewHasher(engine, params)

	// two blocks at rate 2
	digest, err := h.Hash(elems(engine, 1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t,
		engine.FromInterface("13957864973090608675833096178968643743020598475132825089853426368633933088950"),
		digest)

	// three blocks
	digest, err = h.Hash(elems(engine, 1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
	assert.Equal(t,
		engine.FromInterface("9179266317938688128795751208992553450913040009586382626086494072323987073938"),
		digest)
}

func TestHashEmptyInput(t *testing.T) {
	engine := &bn254.Field{}
	params, err := NewParams(engine, 3, SecurityLevel128)
	require.NoError(t, err)
	h := NewHasher(engine, params)

	a, err := h.Hash(nil)
	require.NoError(t, err)
	b, err := h.Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
}

func TestPermutationWidthMismatch(t *testing.T) {
	engine := &bn254.Field{}
	params, err := NewParams(engine, 3, SecurityLevel128)
	require.NoError(t, err)
	_, err = NewHasher(engine, params).Permutation(make([]constraint.Element, 4))
	assert.ErrorIs(t, err, ErrConfiguration)
}
