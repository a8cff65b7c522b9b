package adapthttp

import (
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"nutramind/internal/app"
)

// Services bundles the application services the HTTP adapter drives.
type Services struct {
	Weight    *app.WeightService
	Food      *app.FoodService
	Profile   *app.ProfileService
	Symptoms  *app.SymptomService
	Analytics *app.AnalyticsService
	Insights  *app.InsightService
	Advice    *app.AdviceService
	Export    *app.ExportService
	Sync      *app.SyncService
	Auth      *app.AuthService
}

// OIDCConfig holds the single sign-on settings. SSO routes answer 404 when
// Enabled is false.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// RequestObserver records completed HTTP requests.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	weight    *app.WeightService
	food      *app.FoodService
	profile   *app.ProfileService
	symptoms  *app.SymptomService
	analytics *app.AnalyticsService
	insights  *app.InsightService
	advice    *app.AdviceService
	export    *app.ExportService
	sync      *app.SyncService
	authSvc   *app.AuthService

	oidcConfig  OIDCConfig
	webDir      string
	disableAuth bool
	log         zerolog.Logger

	observer       RequestObserver
	metricsHandler http.Handler
}

// New creates a Server wired to the given application services.
func New(svc Services, oidcConfig OIDCConfig, webDir string, log zerolog.Logger) *Server {
	return &Server{
		weight:     svc.Weight,
		food:       svc.Food,
		profile:    svc.Profile,
		symptoms:   svc.Symptoms,
		analytics:  svc.Analytics,
		insights:   svc.Insights,
		advice:     svc.Advice,
		export:     svc.Export,
		sync:       svc.Sync,
		authSvc:    svc.Auth,
		oidcConfig: oidcConfig,
		webDir:     webDir,
		log:        log,
	}
}

// WithoutAuth disables authentication; every request acts as the
// development user. Used by tests and single-user installs.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// WithMetrics records requests on obs and serves h at /metrics.
func (s *Server) WithMetrics(obs RequestObserver, h http.Handler) *Server {
	s.observer = obs
	s.metricsHandler = h
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	private := http.NewServeMux()
	private.HandleFunc("/profile", s.handleProfile)
	private.HandleFunc("/profile/targets", s.handleProfileTargets)

	private.HandleFunc("/food", s.handleFood)
	private.HandleFunc("/food/{id}", s.handleFoodItem)
	private.HandleFunc("/food/suggest", s.handleFoodSuggest)

	private.HandleFunc("/weight/today", s.handleWeightToday)
	private.HandleFunc("/weight/recent", s.handleWeightRecent)
	private.HandleFunc("/weight/undo-last", s.handleWeightUndoLast)

	private.HandleFunc("/symptoms", s.handleSymptoms)
	private.HandleFunc("/symptoms/undo-last", s.handleSymptomsUndoLast)

	private.HandleFunc("/analytics/today", s.handleAnalyticsToday)
	private.HandleFunc("/analytics/week", s.handleAnalyticsWeek)
	private.HandleFunc("/analytics/weight", s.handleAnalyticsWeight)

	private.HandleFunc("/insights/daily", s.handleInsightDaily)
	private.HandleFunc("/insights/weekly", s.handleInsightWeekly)
	private.HandleFunc("/recommendations", s.handleRecommendations)
	private.HandleFunc("/symptoms/analysis", s.handleSymptomAnalysis)
	private.HandleFunc("/export", s.handleExport)

	private.HandleFunc("/sync/apply", s.handleSyncApply)

	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/config", s.handleConfig)
	api.HandleFunc("/login", s.handleLogin)
	api.HandleFunc("/logout", s.handleLogout)
	api.HandleFunc("/setup", s.handleSetupUser)
	api.HandleFunc("/sso/login", s.handleSSOLogin)
	api.HandleFunc("/sso/callback", s.handleSSOCallback)
	api.Handle("/", s.authMiddleware(private))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.metricsHandler != nil {
		root.Handle("/metrics", s.metricsHandler)
	}
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
