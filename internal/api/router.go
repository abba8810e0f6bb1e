package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"wismass.com/chatlog-combiner/internal/metrics"
)

func NewRouter(apiHandler *APIHandler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get("/config", apiHandler.GetConfigHandler)

		r.Post("/chats", apiHandler.AddChatHandler)
		r.Put("/chats/{index}", apiHandler.RenameChatHandler)
		r.Delete("/chats/{index}", apiHandler.RemoveChatHandler)

		r.Post("/templates", apiHandler.AddTemplateHandler)
		r.Put("/templates/{index}", apiHandler.UpdateTemplateHandler)
		r.Delete("/templates/{index}", apiHandler.RemoveTemplateHandler)
		r.Put("/templates/{index}/chats/{chat}", apiHandler.SetChatEnabledHandler)

		r.Put("/selection", apiHandler.SelectTemplateHandler)
		r.Put("/dates", apiHandler.SetDatesHandler)

		r.Post("/save", apiHandler.SaveHandler)
		r.Post("/preview", apiHandler.PreviewHandler)
		r.Post("/deliver", apiHandler.DeliverHandler)

		r.Get("/deliveries", apiHandler.ListDeliveriesHandler)
	})

	return r
}

// requestLogger logs one line per request, like middleware.Logger but
// through zerolog.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
