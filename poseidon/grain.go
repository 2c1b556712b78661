package poseidon

import "math/big"

// grain is the 80-bit LFSR from the Poseidon reference parameter derivation.
// Its state is seeded from the permutation parameters, warmed up for 160
// steps, and then sampled with the shrinking/rejection procedure to produce
// uniformly distributed field elements.
type grain struct {
	bits [80]byte
}

func newGrain(t, rf, rp, fieldBits int) *grain {
	g := &grain{}
	i := 0
	push := func(v uint64, n int) {
		for k := n - 1; k >= 0; k-- {
			g.bits[i] = byte((v >> uint(k)) & 1)
			i++
		}
	}
	push(1, 2)                  // prime field
	push(0, 4)                  // x^alpha S-box
	push(uint64(fieldBits), 12) // field size in bits
	push(uint64(t), 12)
	push(uint64(rf), 10)
	push(uint64(rp), 10)
	for ; i < 80; i++ {
		g.bits[i] = 1
	}
	for k := 0; k < 160; k++ {
		g.step()
	}
	return g
}

func (g *grain) step() byte {
	b := g.bits[62] ^ g.bits[51] ^ g.bits[38] ^ g.bits[23] ^ g.bits[13] ^ g.bits[0]
	copy(g.bits[:79], g.bits[1:])
	g.bits[79] = b
	return b
}

// bit implements the shrinking step: bit pairs are drawn until the first bit
// of a pair is 1, and the second bit is emitted.
func (g *grain) bit() byte {
	for {
		b1 := g.step()
		b2 := g.step()
		if b1 == 1 {
			return b2
		}
	}
}

// fieldElement samples fieldBits bits MSB-first and rejects candidates that
// are not below the modulus.
func (g *grain) fieldElement(mod *big.Int, fieldBits int) *big.Int {
	for {
		v := new(big.Int)
		for k := 0; k < fieldBits; k++ {
			v.Lsh(v, 1)
			if g.bit() == 1 {
				v.SetBit(v, 0, 1)
			}
		}
		if v.Cmp(mod) < 0 {
			return v
		}
	}
}
