package http

import (
	"net/http"

	"github.com/rs/zerolog"
)

// assetDirs are the public folders uploads are written to.
var assetDirs = []string{"videos", "backgrounds", "questions"}

// RouterConfig collects what NewRouter mounts. PublicDir may be empty when
// assets live in an object store.
type RouterConfig struct {
	API       *Handler
	Feed      *FeedHandler
	PublicDir string
	Log       zerolog.Logger
}

// NewRouter builds the full HTTP handler with logging middleware applied.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	cfg.API.Register(mux)
	if cfg.Feed != nil {
		mux.HandleFunc("GET /ws/submissions", cfg.Feed.ServeWS)
	}
	if cfg.PublicDir != "" {
		files := http.FileServer(http.Dir(cfg.PublicDir))
		for _, dir := range assetDirs {
			mux.Handle("GET /"+dir+"/", files)
		}
	}
	return WithLogging(mux, cfg.Log)
}
