package services

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

type undoStep struct {
	name string
	undo func(ctx context.Context) error
}

// compensator records how to undo completed steps of a multi-store write.
type compensator struct {
	steps []undoStep
}

func (c *compensator) add(name string, undo func(ctx context.Context) error) {
	c.steps = append(c.steps, undoStep{name: name, undo: undo})
}

// rollback runs the recorded steps newest first. It keeps going past
// failures and returns them all. A cancelled request still rolls back.
func (c *compensator) rollback(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var result *multierror.Error
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.undo(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	c.steps = nil
	return result.ErrorOrNil()
}
