package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/fx"

	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/retention"
	"github.com/jdholdren/newsroom/internal/serverutil"
	newssync "github.com/jdholdren/newsroom/internal/sync"
)

const (
	// Creating a feed waits on its first sync, and a sweep can run for a while.
	writeTimeout = 30 * time.Second
	// Leaves the sweep handler room to write its report.
	sweepTimeout = writeTimeout - 5*time.Second
)

type (
	// Server serves the reader's JSON API for whichever user the upstream proxy says is
	// calling.
	Server struct {
		*http.Server

		repo      news.Repository
		syncer    *newssync.Syncer
		retention    *retention.Manager
		sweepTimeout time.Duration

		fetchClient *http.Client
		readerCache *lru.Cache[int64, readerResp]
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
	}

	Params struct {
		fx.In

		Config    ServerConfig
		Repo      news.Repository
		Syncer    *newssync.Syncer
		Retention *retention.Manager
	}
)

func NewServer(lc fx.Lifecycle, p Params) *Server {
	srvr := newServer(p.Config, p.Repo, p.Syncer, p.Retention)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srvr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("error listening", "error", err)
				}
			}()

			slog.Info("started api server", "port", p.Config.Port)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srvr.Shutdown(ctx)
		},
	})

	return srvr
}

func newServer(config ServerConfig, repo news.Repository, syncer *newssync.Syncer, sweeper *retention.Manager) *Server {
	var (
		r        = serverutil.ErrRouter{Router: mux.NewRouter()}
		cache, _ = lru.New[int64, readerResp](1024)
	)

	srvr := &Server{
		repo:      repo,
		syncer:    syncer,
		retention:    sweeper,
		sweepTimeout: sweepTimeout,
		fetchClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		readerCache: cache,
		Server: &http.Server{
			Addr:        fmt.Sprintf(":%d", config.Port),
			ReadTimeout: 5 * time.Second,
			WriteTimeout: writeTimeout,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type", userHeader, serverutil.RequestIDHeader}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.HandleFuncE("/healthz", srvr.getHealthz).Methods(http.MethodGet)

	authed := serverutil.ErrRouter{Router: r.PathPrefix("/api/v1").Subrouter()}
	authed.Use(requireUserMiddleware)

	// Folders
	authed.HandleFuncE("/folders", srvr.getFolders).Methods(http.MethodGet)
	authed.HandleFuncE("/folders", srvr.postFolder).Methods(http.MethodPost)
	authed.HandleFuncE("/folders/{folderID}", srvr.putFolder).Methods(http.MethodPut)
	authed.HandleFuncE("/folders/{folderID}", srvr.deleteFolder).Methods(http.MethodDelete)
	authed.HandleFuncE("/folders/{folderID}/read", srvr.putFolderRead).Methods(http.MethodPut)

	// Feeds
	authed.HandleFuncE("/feeds", srvr.getFeeds).Methods(http.MethodGet)
	authed.HandleFuncE("/feeds", srvr.postFeed).Methods(http.MethodPost)
	authed.HandleFuncE("/feeds/{feedID}", srvr.deleteFeed).Methods(http.MethodDelete)
	authed.HandleFuncE("/feeds/{feedID}/move", srvr.putFeedMove).Methods(http.MethodPut)
	authed.HandleFuncE("/feeds/{feedID}/rename", srvr.putFeedRename).Methods(http.MethodPut)
	authed.HandleFuncE("/feeds/{feedID}/read", srvr.putFeedRead).Methods(http.MethodPut)

	// Items
	authed.HandleFuncE("/items", srvr.getItems).Methods(http.MethodGet)
	authed.HandleFuncE("/items/read", srvr.putItemsRead).Methods(http.MethodPut)
	authed.HandleFuncE("/items/{itemID}/reader", srvr.getItemReader).Methods(http.MethodGet)
	authed.HandleFuncE("/items/{itemID}/{action}", srvr.putItemAction).Methods(http.MethodPut)

	// Subscription lists
	authed.HandleFuncE("/opml", srvr.getOPML).Methods(http.MethodGet)
	authed.HandleFuncE("/opml", srvr.postOPML).Methods(http.MethodPost)

	// Maintenance
	authed.HandleFuncE("/maintenance/retention", srvr.postRetention).Methods(http.MethodPost)

	slog.Debug("configured api server", "port", config.Port)

	return srvr
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
