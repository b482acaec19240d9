// Package schedule drives the two periodic triggers: polling upstream and
// ticking the display.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	krerrs "github.com/jdholdren/krisinfo/internal/errors"
	"github.com/jdholdren/krisinfo/internal/filter"
	"github.com/jdholdren/krisinfo/internal/krisinfo"
	"github.com/jdholdren/krisinfo/internal/rotation"
	"github.com/jdholdren/krisinfo/logger"
)

// Fetcher retrieves the unfiltered upstream feed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]krisinfo.FeedItem, error)
}

type (
	// Scheduler runs the poll trigger and the display trigger.
	//
	// The rotation controller is only ever touched by the display goroutine.
	// Polls run on their own goroutine and hand results over as
	// notifications, so a slow request never holds up a display tick.
	Scheduler struct {
		fetcher    Fetcher
		filter     krisinfo.FilterConfig
		rotation   krisinfo.RotationConfig
		controller *rotation.Controller
		presenters []krisinfo.Presenter

		notifications chan krisinfo.Notification
	}

	Params struct {
		fx.In

		Fetcher    Fetcher
		Filter     krisinfo.FilterConfig
		Rotation   krisinfo.RotationConfig
		Presenters []krisinfo.Presenter `group:"presenters"`
	}
)

func NewScheduler(p Params) *Scheduler {
	return &Scheduler{
		fetcher:       p.Fetcher,
		filter:        p.Filter,
		rotation:      p.Rotation,
		controller:    rotation.New(p.Rotation),
		presenters:    p.Presenters,
		notifications: make(chan krisinfo.Notification, 1),
	}
}

// Run starts both triggers and blocks until ctx is canceled. Both stop together.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.pollLoop(gCtx)
	})
	g.Go(func() error {
		return s.displayLoop(gCtx)
	})

	// The loops only stop on cancellation, which is a clean shutdown.
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

// Polls once right away, then on every interval.
func (s *Scheduler) pollLoop(ctx context.Context) error {
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.rotation.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping poll trigger")
			return ctx.Err()
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Scheduler) pollOnce(ctx context.Context) {
	ctx = logger.Ctx(ctx, slog.String("poll_id", uuid.NewString()))

	n, ok := s.poll(ctx)
	if !ok {
		return
	}

	select {
	case <-ctx.Done():
	case s.notifications <- n:
	}
}

// Fetches and filters, returning the notification for the display side.
//
// Returns false when the poll was cut short by shutdown.
func (s *Scheduler) poll(ctx context.Context) (krisinfo.Notification, bool) {
	slog.InfoContext(ctx, "getting feed")

	items, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return krisinfo.Notification{}, false
		}

		failure := failureFrom(err)
		slog.WarnContext(ctx, "problems fetching feed", "status", failure.StatusCode, "error", err)
		return krisinfo.Notification{
			Kind:    krisinfo.NotificationServiceFailure,
			Failure: &failure,
		}, true
	}

	feed := filter.Dated(filter.Filter(items, s.filter))
	slog.InfoContext(ctx, "sending new feed", "count", len(feed), "upstream_count", len(items))

	return krisinfo.Notification{
		Kind: krisinfo.NotificationNewFeed,
		Feed: feed,
	}, true
}

func failureFrom(err error) krisinfo.ServiceFailure {
	failure := krisinfo.ServiceFailure{
		StatusCode: krerrs.StatusOf(err),
		Message:    err.Error(),
	}

	// The status is already carried separately; keep just the message.
	var kerr *krerrs.Error
	if errors.As(err, &kerr) {
		failure.Message = kerr.Message()
	}

	return failure
}

// Owns the rotation controller: applies notifications as they arrive and
// selects an item on every tick. The first tick comes one interval in.
func (s *Scheduler) displayLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.rotation.DisplayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping display trigger")
			return ctx.Err()
		case n := <-s.notifications:
			s.controller.Handle(n)
			s.notify(ctx, n)
		case <-ticker.C:
			s.present(ctx, s.controller.SelectForDisplay())
		}
	}
}

func (s *Scheduler) notify(ctx context.Context, n krisinfo.Notification) {
	for _, p := range s.presenters {
		if err := p.Notify(ctx, n); err != nil {
			slog.ErrorContext(ctx, "error notifying presenter", "kind", n.Kind, "error", err)
		}
	}
}

func (s *Scheduler) present(ctx context.Context, d krisinfo.Display) {
	slog.DebugContext(ctx, "display tick", "kind", d.Kind, "cursor", s.controller.Cursor(), "failure", d.Failure != nil)

	for _, p := range s.presenters {
		if err := p.Present(ctx, d); err != nil {
			slog.ErrorContext(ctx, "error presenting", "kind", d.Kind, "error", err)
		}
	}
}
