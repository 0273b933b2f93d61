package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrStepBudgetExceeded = errors.New("step budget exceeded")
	ErrAborted            = errors.New("question processing aborted")
)

// stepBudget is the hard ceiling on pipeline nodes for one question. It is
// shared by both retrieval loops when they run in parallel.
type stepBudget struct {
	limit int64
	used  atomic.Int64
}

func newStepBudget(limit int) *stepBudget {
	if limit < 1 {
		limit = DefaultStepBudget
	}
	return &stepBudget{limit: int64(limit)}
}

// charge accounts for one node and fails once the budget is exceeded or the
// caller has cancelled.
func (b *stepBudget) charge(ctx context.Context, node string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAborted, node, err)
	}
	if n := b.used.Add(1); n > b.limit {
		return fmt.Errorf("%w: %s would be step %d of %d", ErrStepBudgetExceeded, node, n, b.limit)
	}
	return nil
}

func (b *stepBudget) steps() int {
	n := b.used.Load()
	if n > b.limit {
		n = b.limit
	}
	return int(n)
}
