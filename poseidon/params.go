// Package poseidon supplies the Poseidon parameter sets (round constants and
// mixing matrix) and the native reference hasher. Parameters are computed
// once per (width, security level) pair before synthesis and are immutable
// afterwards.
package poseidon

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint"

	"github.com/snarkify/poseidon-circuit/field"
)

// ErrConfiguration reports an invalid or inconsistent parameter set: wrong
// vector or matrix dimensions, wrong round counts, unsupported width or
// security level. Dimension mismatches are never papered over by truncation
// or padding.
var ErrConfiguration = errors.New("poseidon: invalid configuration")

// SecurityLevel128 selects the 128-bit parameter sets.
const SecurityLevel128 = 128

// numFullRounds is fixed across the supported widths at 128-bit security.
const numFullRounds = 8

// numPartialRounds maps state width to the partial round count at 128-bit
// security, for the x^5 S-box over a ~254-bit prime field.
var numPartialRounds = map[int]int{
	2: 56,
	3: 57,
	4: 56,
	5: 60,
	6: 60,
	7: 63,
	8: 64,
	9: 63,
}

type RoundKind uint8

const (
	Full RoundKind = iota
	Partial
)

// Round is one round descriptor: its kind and the length-T vector of
// additive constants consumed by the round.
type Round struct {
	Kind      RoundKind
	Constants []constraint.Element
}

// ConstantsProvider supplies, for a given state width and security level,
// the ordered round descriptors and the mixing matrix. Implementations must
// be deterministic.
type ConstantsProvider interface {
	RoundConstants(t, securityLevel int) ([]Round, error)
	MixingMatrix(t int) ([][]constraint.Element, error)
}

// GrainProvider is the default ConstantsProvider. Round constants follow the
// standard Grain LFSR derivation for the x^5 S-box over the engine's field;
// the mixing matrix is the Cauchy matrix M[i][j] = 1/(i + t + j). Rounds are
// tagged in the canonical order: RF/2 full, RP partial, RF/2 full, with the
// partial rounds S-boxing state index 0.
type GrainProvider struct {
	engine field.Field
}

func NewGrainProvider(engine field.Field) *GrainProvider {
	return &GrainProvider{engine: engine}
}

func (p *GrainProvider) RoundConstants(t, securityLevel int) ([]Round, error) {
	rf, rp, err := roundNumbers(t, securityLevel)
	if err != nil {
		return nil, err
	}
	mod := p.engine.Field()
	bits := p.engine.FieldBitLen()
	g := newGrain(t, rf, rp, bits)
	rounds := make([]Round, rf+rp)
	for r := range rounds {
		cs := make([]constraint.Element, t)
		for i := 0; i < t; i++ {
			cs[i] = p.engine.FromInterface(g.fieldElement(mod, bits))
		}
		kind := Full
		if r >= rf/2 && r < rf/2+rp {
			kind = Partial
		}
		rounds[r] = Round{Kind: kind, Constants: cs}
	}
	return rounds, nil
}

func (p *GrainProvider) MixingMatrix(t int) ([][]constraint.Element, error) {
	if t < 2 {
		return nil, fmt.Errorf("%w: state width must be at least 2, got %d", ErrConfiguration, t)
	}
	mod := p.engine.Field()
	m := make([][]constraint.Element, t)
	for i := 0; i < t; i++ {
		m[i] = make([]constraint.Element, t)
		for j := 0; j < t; j++ {
			inv := new(big.Int).ModInverse(big.NewInt(int64(i+t+j)), mod)
			m[i][j] = p.engine.FromInterface(inv)
		}
	}
	return m, nil
}

func roundNumbers(t, securityLevel int) (rf, rp int, err error) {
	if securityLevel != SecurityLevel128 {
		return 0, 0, fmt.Errorf("%w: unsupported security level %d", ErrConfiguration, securityLevel)
	}
	rp, ok := numPartialRounds[t]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unsupported state width %d", ErrConfiguration, t)
	}
	return numFullRounds, rp, nil
}

// Params is a validated, immutable Poseidon parameter set for one circuit
// instance.
type Params struct {
	T             int
	SecurityLevel int
	// RF and RP are the full/partial round counts of the schedule.
	RF int
	RP int
	// Rounds is the canonical schedule: RF/2 full, RP partial, RF/2 full.
	Rounds []Round
	// Mds is the T x T mixing matrix.
	Mds [][]constraint.Element
}

// NewParams builds a parameter set from the default GrainProvider.
func NewParams(engine field.Field, t, securityLevel int) (*Params, error) {
	return NewParamsFromProvider(NewGrainProvider(engine), t, securityLevel)
}

// NewParamsFromProvider builds and validates a parameter set from an
// arbitrary provider. Every dimension and the round ordering are checked; a
// provider output that does not fit yields ErrConfiguration.
func NewParamsFromProvider(provider ConstantsProvider, t, securityLevel int) (*Params, error) {
	if t < 2 {
		return nil, fmt.Errorf("%w: state width must be at least 2, got %d", ErrConfiguration, t)
	}
	rounds, err := provider.RoundConstants(t, securityLevel)
	if err != nil {
		return nil, err
	}
	mds, err := provider.MixingMatrix(t)
	if err != nil {
		return nil, err
	}
	p := &Params{T: t, SecurityLevel: securityLevel, Rounds: rounds, Mds: mds}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Params) validate() error {
	for r, round := range p.Rounds {
		if len(round.Constants) != p.T {
			return fmt.Errorf("%w: round %d has %d constants, want %d", ErrConfiguration, r, len(round.Constants), p.T)
		}
		switch round.Kind {
		case Full:
			p.RF++
		case Partial:
			p.RP++
		default:
			return fmt.Errorf("%w: round %d has unknown kind %d", ErrConfiguration, r, round.Kind)
		}
	}
	if p.RF == 0 || p.RF%2 != 0 {
		return fmt.Errorf("%w: full round count %d must be positive and even", ErrConfiguration, p.RF)
	}
	// canonical ordering: RF/2 full, RP partial, RF/2 full
	for r, round := range p.Rounds {
		want := Full
		if r >= p.RF/2 && r < p.RF/2+p.RP {
			want = Partial
		}
		if round.Kind != want {
			return fmt.Errorf("%w: round %d out of canonical order", ErrConfiguration, r)
		}
	}
	if len(p.Mds) != p.T {
		return fmt.Errorf("%w: mixing matrix has %d rows, want %d", ErrConfiguration, len(p.Mds), p.T)
	}
	for i, row := range p.Mds {
		if len(row) != p.T {
			return fmt.Errorf("%w: mixing matrix row %d has %d columns, want %d", ErrConfiguration, i, len(row), p.T)
		}
	}
	return nil
}

// Rate is the number of state entries available for absorption; entry 0 is
// the capacity slot.
func (p *Params) Rate() int {
	return p.T - 1
}
