package schedule

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("schedule",
	fx.Provide(
		NewScheduler,
	),
	fx.Invoke(runOnLifecycle),
)

// Starts the scheduler with the app and cancels both triggers on stop.
func runOnLifecycle(lc fx.Lifecycle, s *Scheduler) {
	var (
		ctx, cancel = context.WithCancel(context.Background())
		done        = make(chan error, 1)
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				done <- s.Run(ctx)
			}()

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()

			select {
			case err := <-done:
				return err
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
