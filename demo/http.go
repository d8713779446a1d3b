package demo

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/ice/common/endpoints"
	"github.com/twitter/ice/common/stats"
	"github.com/twitter/ice/ice"
)

const maxBody = 1 << 16

// scopedHandler runs inside the request's handler scope and returns the response body.
type scopedHandler func(req *http.Request, h *ice.Resolver) (string, error)

// NewRouter serves the demo app off one long-lived app scope. Every request gets
// its own handler scope, closed before the response is written, so a request
// that fails rolls its transaction back.
//
//	GET /foo/{key}      read through foo_ctrl
//	PUT /foo/{key}      write the body through foo_ctrl
//	GET /bar/{key}      read through bar_ctrl and the app cache
//
// plus the common/endpoints admin routes (/health, /admin/metrics.json, /admin/graph).
func NewRouter(app *ice.Resolver, stat stats.StatsReceiver) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(counted(stat))

	r.Get("/foo/{key}", scoped(app, func(req *http.Request, h *ice.Resolver) (string, error) {
		foo, err := ice.ResolveAs[*FooCtrl](h, "foo_ctrl")
		if err != nil {
			return "", err
		}
		return foo.Get(req.Context(), chi.URLParam(req, "key"))
	}))
	r.Put("/foo/{key}", scoped(app, func(req *http.Request, h *ice.Resolver) (string, error) {
		foo, err := ice.ResolveAs[*FooCtrl](h, "foo_ctrl")
		if err != nil {
			return "", err
		}
		bar, err := ice.ResolveAs[*BarCtrl](h, "bar_ctrl")
		if err != nil {
			return "", err
		}
		body, err := io.ReadAll(io.LimitReader(req.Body, maxBody))
		if err != nil {
			return "", err
		}
		key := chi.URLParam(req, "key")
		if err := foo.Put(req.Context(), key, string(body)); err != nil {
			return "", err
		}
		bar.Forget(key)
		return "ok", nil
	}))
	r.Get("/bar/{key}", scoped(app, func(req *http.Request, h *ice.Resolver) (string, error) {
		bar, err := ice.ResolveAs[*BarCtrl](h, "bar_ctrl")
		if err != nil {
			return "", err
		}
		return bar.Get(chi.URLParam(req, "key"))
	}))

	endpoints.NewAdminServer(stat, app.Chain()).Mount(r)
	return r
}

func scoped(app *ice.Resolver, fn scopedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body string
		err := app.WithNextScope(func(h *ice.Resolver) error {
			var err error
			body, err = fn(req, h)
			return err
		}, HandlerScope)
		if err != nil {
			log.WithFields(log.Fields{
				"path":      req.URL.Path,
				"requestID": middleware.GetReqID(req.Context()),
			}).Infof("request failed: %v", err)
			http.Error(w, err.Error(), statusOf(err))
			return
		}
		io.WriteString(w, body)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func counted(stat stats.StatsReceiver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer stat.Latency(stats.IcectlRequestLatency_ms).Time().Stop()
			stat.Counter(stats.IcectlRequestCounter).Inc(1)
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)
			if ww.Status() >= http.StatusBadRequest {
				stat.Counter(stats.IcectlRequestErrCounter).Inc(1)
			}
		})
	}
}
