package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
	"github.com/shaiso/Vitrina/internal/telemetry"
)

// Step — шаг workflow.
//
// Перед выполнением пишется событие Event с текстом Message. Ошибка шага
// с AbortOnError прерывает workflow; иначе пишется предупреждение
// "<Event>_warning" и workflow продолжается. Шаг без Run только
// отмечается в журнале.
type Step struct {
	Name         string
	Event        string
	Message      string
	AbortOnError bool
	Run          func(ctx context.Context) error
}

// runSteps последовательно выполняет шаги.
func runSteps(ctx context.Context, ex *execution, logger *slog.Logger, steps []Step) error {
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		ex.emit(ctx, st.Event, st.Message, domain.SeverityInfo)
		if st.Run == nil {
			continue
		}

		err := st.Run(ctx)
		if err == nil {
			logger.Debug("step completed", "step", st.Name)
			continue
		}
		if st.AbortOnError || ctx.Err() != nil {
			return fmt.Errorf("%s: %w", st.Name, err)
		}

		telemetry.ConfigCommandFailures.Inc()
		logger.Warn("step failed, continuing", "step", st.Name, "error", err)
		ex.emit(ctx, st.Event+"_warning", fmt.Sprintf("%s failed: %v", st.Name, err), domain.SeverityWarning)
	}
	return nil
}

// sleep ждёт d или отмены ctx.
func sleep(d time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if d <= 0 {
			return nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}
