// Package present delivers display ticks and poll outcomes to whatever is
// drawing the screen: an HTTP surface a page can poll, and an optional webhook.
package present

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/fx"

	displayv1 "github.com/jdholdren/krisinfo/api/display/v1"
	krerrs "github.com/jdholdren/krisinfo/internal/errors"
	"github.com/jdholdren/krisinfo/internal/krisinfo"
	"github.com/jdholdren/krisinfo/internal/server"
)

type (
	// Surface serves the latest display tick and feed over HTTP.
	Surface struct {
		*server.Server

		settings displayv1.Config
		now      func() time.Time

		mu      sync.RWMutex
		display displayv1.Display
		feed    displayv1.Feed
	}

	SurfaceConfig struct {
		Port       int
		CORSOrigin string
	}

	SurfaceParams struct {
		fx.In

		Config   SurfaceConfig
		Settings displayv1.Config
	}
)

func NewSurface(p SurfaceParams) *Surface {
	s := &Surface{
		Server: server.NewServer("display", server.Config{
			Port:       p.Config.Port,
			CORSOrigin: p.Config.CORSOrigin,
		}),
		settings: p.Settings,
		now:      time.Now,
		display: displayv1.Display{
			Kind: string(krisinfo.DisplayLoading),
		},
		feed: displayv1.Feed{
			Items: []displayv1.Item{},
		},
	}

	r := s.Router
	r.HandleFuncE("/healthz", s.getHealthz).Methods(http.MethodGet)
	r.HandleFuncE("/v1/display", s.getDisplay).Methods(http.MethodGet)
	r.HandleFuncE("/v1/feed", s.getFeed).Methods(http.MethodGet)
	r.HandleFuncE("/v1/feed/items/{id}", s.getFeedItem).Methods(http.MethodGet)
	r.HandleFuncE("/v1/config", s.getConfig).Methods(http.MethodGet)

	return s
}

// Starts and stops the HTTP server with the app.
func registerSurface(lc fx.Lifecycle, s *Surface) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("display server stopped", "error", err)
				}
			}()

			slog.Info("started display server", "addr", s.Addr)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Shutdown(ctx)
		},
	})
}

// Present stores the tick for the next GET /v1/display.
func (s *Surface) Present(_ context.Context, d krisinfo.Display) error {
	out := toDisplay(d, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = out

	return nil
}

// Notify tracks the latest feed and failure overlay.
func (s *Surface) Notify(_ context.Context, n krisinfo.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch n.Kind {
	case krisinfo.NotificationNewFeed:
		now := s.now()
		s.feed = displayv1.Feed{
			Loaded:    true,
			Count:     len(n.Feed),
			Items:     toItems(n.Feed),
			UpdatedAt: &now,
		}
	case krisinfo.NotificationServiceFailure:
		s.feed.Failure = toFailure(n.Failure)
	}

	return nil
}

func (s *Surface) getHealthz(w http.ResponseWriter, r *http.Request) error {
	return server.WriteJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

func (s *Surface) getDisplay(w http.ResponseWriter, r *http.Request) error {
	s.mu.RLock()
	d := s.display
	s.mu.RUnlock()

	return server.WriteJSON(w, http.StatusOK, d)
}

func (s *Surface) getFeed(w http.ResponseWriter, r *http.Request) error {
	s.mu.RLock()
	f := s.feed
	s.mu.RUnlock()

	return server.WriteJSON(w, http.StatusOK, f)
}

func (s *Surface) getFeedItem(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.feed.Items {
		if item.Identifier == id {
			return server.WriteJSON(w, http.StatusOK, item)
		}
	}

	return krerrs.E(http.StatusNotFound, "item not in current feed", krerrs.Detail{Field: "id", Error: id})
}

func (s *Surface) getConfig(w http.ResponseWriter, r *http.Request) error {
	return server.WriteJSON(w, http.StatusOK, s.settings)
}
