package usecase

import (
	"context"
	"errors"
	"testing"
)

func TestRunSagaAllStepsSucceed(t *testing.T) {
	var order []string
	steps := []SagaStep{
		{Name: "one", Run: func(ctx context.Context) error { order = append(order, "one"); return nil }},
		{Name: "two", Run: func(ctx context.Context) error { order = append(order, "two"); return nil }},
	}
	step, err := RunSaga(context.Background(), nil, "test", steps)
	if err != nil {
		t.Fatalf("RunSaga: %v", err)
	}
	if step != "" {
		t.Errorf("failed step = %q, want empty", step)
	}
	if len(order) != 2 {
		t.Errorf("order = %v", order)
	}
}

func TestRunSagaCompensatesInReverse(t *testing.T) {
	var compensated []string
	boom := errors.New("boom")
	steps := []SagaStep{
		{
			Name:       "one",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { compensated = append(compensated, "one"); return nil },
		},
		{
			Name:       "two",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { compensated = append(compensated, "two"); return nil },
		},
		{
			Name: "three",
			Run:  func(ctx context.Context) error { return boom },
		},
	}
	step, err := RunSaga(context.Background(), nil, "test", steps)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if step != "three" {
		t.Errorf("failed step = %q", step)
	}
	if len(compensated) != 2 || compensated[0] != "two" || compensated[1] != "one" {
		t.Errorf("compensated = %v, want [two one]", compensated)
	}
}

func TestRunSagaCompensationErrorsSwallowed(t *testing.T) {
	boom := errors.New("boom")
	steps := []SagaStep{
		{
			Name:       "one",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { return errors.New("compensation broke") },
		},
		{
			Name: "two",
			Run:  func(ctx context.Context) error { return boom },
		},
	}
	_, err := RunSaga(context.Background(), nil, "test", steps)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the step error, not the compensation error", err)
	}
}

func TestRunSagaNilCompensateSkipped(t *testing.T) {
	boom := errors.New("boom")
	steps := []SagaStep{
		{Name: "one", Run: func(ctx context.Context) error { return nil }},
		{Name: "two", Run: func(ctx context.Context) error { return boom }},
	}
	step, err := RunSaga(context.Background(), nil, "test", steps)
	if !errors.Is(err, boom) || step != "two" {
		t.Fatalf("step=%q err=%v", step, err)
	}
}
