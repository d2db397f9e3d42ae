package httpapi

import (
	stdhttp "net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"songdrop/internal/http/handlers"
	"songdrop/internal/middleware"
)

// Options configures the router around the handlers.
type Options struct {
	JWTSecret       string
	RateLimitPerMin int
	CORSOrigins     []string
	// StaticDir, when set, serves song previews under /static for the
	// filesystem media store. Full tracks and clips go through the bundle.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, middleware.RequestID, middleware.Logger(app.Logger), chimw.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}

	limiter := middleware.NewLimiter(opts.RateLimitPerMin, time.Minute)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Post("/webhooks/payments", app.PaymentWebhook)
		r.Post("/transactions/verify", app.VerifyTransaction)
		r.With(limiter.Handler).Post("/previews", app.Preview)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret), limiter.Handler)
			r.Get("/credits", app.Credits)
			r.Post("/songs", app.CreateSong)
			r.Get("/songs/{song_id}", app.GetSong)
			r.Get("/songs/{song_id}/bundle", app.SongBundle)
			r.Post("/songs/{song_id}/render", app.RenderSong)
			r.Get("/jobs/{job_id}", app.JobStatus)
			r.Post("/purchases", app.CreatePurchase)
		})
	})

	if opts.StaticDir != "" {
		fs := stdhttp.StripPrefix("/static/", previewsOnly(stdhttp.FileServer(stdhttp.Dir(opts.StaticDir))))
		r.Handle("/static/*", fs)
	}

	return r
}

// previewKeyPattern matches the storage keys the worker writes for previews.
const previewKeyPattern = "songs/*/preview.*"

func previewsOnly(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		key := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if ok, _ := path.Match(previewKeyPattern, key); !ok {
			stdhttp.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
