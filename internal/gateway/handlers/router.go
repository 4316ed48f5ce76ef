package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP surface. Auth endpoints are open; the image
// and text routes sit behind the auth (and optional rate limit) middleware.
func NewRouter(mw *Middleware, authH *AuthHandler, imagesH *ImagesHandler, textH *TextHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORSMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Gen AI Playground Gateway",
			"status":  "running",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.HandleRegister)
		r.Post("/login", authH.HandleLogin)
	})

	r.Route("/images", func(r chi.Router) {
		r.Use(mw.AuthMiddleware)
		r.Use(mw.RateLimitMiddleware)

		r.Post("/generate", imagesH.HandleGenerate)
		r.Post("/edit-image", imagesH.HandleEdit)
		r.Get("/history", imagesH.HandleHistory)
	})

	r.Route("/text", func(r chi.Router) {
		r.Use(mw.AuthMiddleware)
		r.Use(mw.RateLimitMiddleware)

		r.Post("/deploy", textH.HandleDeploy)
		r.Delete("/deploy", textH.HandleDelete)
		r.Post("/connect", textH.HandleConnect)
		r.Get("/status", textH.HandleStatus)
		r.Get("/deployments", textH.HandleListDeployments)
		r.Post("/generate", textH.HandleGenerateText)
		r.Post("/chat", textH.HandleChat)
	})

	return r
}
