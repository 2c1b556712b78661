package test

import (
	"testing"

	"github.com/snarkify/poseidon-circuit/checker"
	"github.com/snarkify/poseidon-circuit/field"
	"github.com/snarkify/poseidon-circuit/maingate"
)

type Assert struct {
	t *testing.T
}

func NewAssert(t *testing.T) *Assert {
	return &Assert{t: t}
}

func (a *Assert) CheckSucceeded(engine field.Field, c *maingate.Circuit) {
	if err := checker.Check(engine, c); err != nil {
		a.t.Fatal("should succeed:", err)
	}
}

func (a *Assert) CheckFailed(engine field.Field, c *maingate.Circuit) {
	if err := checker.Check(engine, c); err == nil {
		a.t.Fatal("should fail")
	}
}
