// Package server is a read-only HTTP API over the cache, for debugging and dashboards.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starshine-sys/guildcache/cache"
	"github.com/starshine-sys/guildcache/common"
	"github.com/starshine-sys/guildcache/common/log"
)

// TotalsFunc returns guild and user totals across processes.
type TotalsFunc func(ctx context.Context) (guilds, users int64, err error)

type Options struct {
	// Metrics is served at /metrics if set.
	Metrics http.Handler
	// Totals is included in /stats if set.
	Totals TotalsFunc
}

// Server serves the API.
type Server struct {
	cache   *cache.Cache
	metrics http.Handler
	totals  TotalsFunc
	log     *zap.SugaredLogger
}

func New(c *cache.Cache, opts Options) *Server {
	return &Server{
		cache:   c,
		metrics: opts.Metrics,
		totals:  opts.Totals,
		log:     log.Named("server"),
	}
}

// Router returns the API's routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/stats", s.stats)
	r.Get("/guilds/{guildID}", s.guild)
	r.Get("/guilds/{guildID}/permissions", s.guildPermissions)
	r.Get("/guilds/{guildID}/members/{userID}", s.member)
	r.Get("/channels/{channelID}/permissions", s.channelPermissions)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Infof("API listening on %v", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Wrap(err, "serving API")
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func (s *Server) error(w http.ResponseWriter, r *http.Request, code int, msg string, err error) {
	e := apiError{Code: code, Message: msg}

	if code >= http.StatusInternalServerError {
		e.ID = uuid.New().String()
		s.log.Errorf("[%s] %v: %v", e.ID, msg, err)
	}

	render.Status(r, code)
	render.JSON(w, r, e)
}

type permissions struct {
	Raw   string   `json:"raw"`
	Names []string `json:"names"`
}

func newPermissions(p discord.Permissions) permissions {
	return permissions{
		Raw:   strconv.FormatUint(uint64(p), 10),
		Names: common.PermStrings(p),
	}
}
