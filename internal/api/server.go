// Package api serves the stored articles over a read-only JSON API.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jdholdren/touchline/internal/serverutil"
	"github.com/jdholdren/touchline/internal/touchline"
)

// Repo is the read side of the article store.
type Repo interface {
	Article(ctx context.Context, id int64) (touchline.Article, error)
	QueryArticles(ctx context.Context, filter touchline.ArticleFilter) ([]touchline.Article, error)
	Stats(ctx context.Context) (touchline.Stats, error)
}

type (
	// Server answers queries about collected articles.
	Server struct {
		*http.Server

		fetchClient *http.Client
		readerCache *lru.Cache[int64, ReaderResp]

		repo Repo
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
	}
)

func NewServer(config ServerConfig, repo Repo) *Server {
	var (
		r        = serverutil.ErrRouter{Router: mux.NewRouter()}
		cache, _ = lru.New[int64, ReaderResp](1024)
	)
	if config.CorsOrigin == "" {
		config.CorsOrigin = "*"
	}

	srvr := Server{
		fetchClient: &http.Client{
			Timeout: touchline.DefaultFetchTimeout,
		},
		readerCache: cache,
		repo:        repo,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.HandleFuncE("/health", srvr.getHealth).Methods(http.MethodGet)
	r.HandleFuncE("/articles", srvr.getArticles).Methods(http.MethodGet)
	r.HandleFuncE("/articles/{articleID:[0-9]+}", srvr.getArticle).Methods(http.MethodGet)
	r.HandleFuncE("/articles/{articleID:[0-9]+}/reader", srvr.getReader).Methods(http.MethodGet)
	r.HandleFuncE("/stats", srvr.getStats).Methods(http.MethodGet)
	r.HandleFuncE("/categories", srvr.getCategories).Methods(http.MethodGet)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr
}
