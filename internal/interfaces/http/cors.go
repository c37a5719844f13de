package http

import (
	"net/http"
	"slices"

	"github.com/himomohi/MaziSpace/internal/config"
	"github.com/rs/cors"
)

// WithCORS 用跨域策略包装 next。
// 允许任意来源时回显请求的 Origin。
func WithCORS(next http.Handler, cfg config.CORSConfig) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: cfg.AllowCredentials,
	}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = cfg.AllowedOrigins
	}
	return cors.New(opts).Handler(next)
}
