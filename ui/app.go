package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"psyphy/app"
	"psyphy/ports"
)

// App is the HTTP surface: session and trial capture, threshold
// estimation, and stimulus preview endpoints.
type App struct {
	router   *chi.Mux
	ledger   ports.TrialLedgerPort
	stimulus *app.StimulusService
	analysis *app.AnalysisService
}

// NewApp creates the HTTP application
func NewApp(ledger ports.TrialLedgerPort, stimulus *app.StimulusService, analysis *app.AnalysisService) *App {
	a := &App{
		router:   chi.NewRouter(),
		ledger:   ledger,
		stimulus: stimulus,
		analysis: analysis,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Post("/sessions", a.handleCreateSession)
	a.router.Get("/sessions/{id}", a.handleGetSession)
	a.router.Post("/sessions/{id}/trials", a.handleAppendTrial)
	a.router.Get("/sessions/{id}/trials", a.handleListTrials)
	a.router.Get("/sessions/{id}/estimate", a.handleEstimate)
	a.router.Get("/sessions/{id}/report", a.handleReport)

	a.router.Get("/stimulus/sigma", a.handleSigma)
	a.router.Get("/stimulus/preview", a.handlePreview)
}

// Router exposes the configured handler for serving and tests.
func (a *App) Router() http.Handler { return a.router }

// ListenAndServe starts the HTTP server on the given port.
func (a *App) ListenAndServe(port string) error {
	return http.ListenAndServe(":"+port, a.router)
}
