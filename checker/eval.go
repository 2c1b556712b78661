// Package checker re-validates a finished circuit before it is handed to a
// proving backend: structural consistency of the wiring graph, every
// equality edge, and the gate relation on every row.
package checker

import (
	"github.com/snarkify/poseidon-circuit/field"
	"github.com/snarkify/poseidon-circuit/maingate"
)

// Check returns nil iff the circuit is internally consistent and every row
// satisfies the gate relation. The first failure is reported with its row
// index.
func Check(engine field.Field, c *maingate.Circuit) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for i := 0; i < c.NbRows(); i++ {
		if err := maingate.CheckRow(engine, c.Row(i), i); err != nil {
			return err
		}
	}
	return nil
}
