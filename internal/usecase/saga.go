package usecase

import (
	"context"
	"log/slog"
)

// SagaStep is one unit of a multi-store write sequence. Compensate
// declares the step's rollback policy explicitly; nil means the step
// is never rolled back. Compensation runs best-effort: its errors are
// logged, never propagated.
type SagaStep struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// RunSaga executes steps in order. On failure it compensates the
// already-completed steps in reverse order and returns the name of the
// failed step with the original error. There is no distributed
// transaction behind this: each step commits independently, and
// compensation is the only (best-effort) undo.
func RunSaga(ctx context.Context, logger *slog.Logger, op string, steps []SagaStep) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for i, step := range steps {
		if err := step.Run(ctx); err != nil {
			logger.Warn("saga step failed", "op", op, "step", step.Name, "err", err)
			for j := i - 1; j >= 0; j-- {
				if steps[j].Compensate == nil {
					continue
				}
				if cerr := steps[j].Compensate(ctx); cerr != nil {
					logger.Warn("saga compensation failed", "op", op, "step", steps[j].Name, "err", cerr)
				}
			}
			return step.Name, err
		}
	}
	return "", nil
}
