package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"nutramind/internal/adapter/groq"
	adapthttp "nutramind/internal/adapter/http"
	"nutramind/internal/adapter/memory"
	"nutramind/internal/adapter/postgres"
	"nutramind/internal/app"
	"nutramind/internal/config"
	"nutramind/internal/domain"
	"nutramind/internal/logging"
	"nutramind/internal/metrics"
)

const sessionPurgeInterval = time.Hour

// repos is the set of persistence ports the services need. Both the
// postgres and in-memory adapters provide all of them.
type repos struct {
	weights  domain.WeightRepository
	food     domain.FoodRepository
	symptoms domain.SymptomRepository
	profiles domain.ProfileRepository
	ledger   domain.MutationLedger
	users    domain.UserRepository
	sessions domain.SessionRepository
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("config")
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := openRepos(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer func() { _ = r.close() }()

	m := metrics.New(logging.Component(log, "metrics"))

	var (
		estimator app.NutritionEstimator
		generator app.TextGenerator
		advisor   app.Advisor
	)
	if cfg.GroqAPIKey != "" {
		c := groq.New(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel)
		estimator, generator, advisor = c, c, c
	} else {
		log.Warn().Msg("GROQ_API_KEY not set, using fallback estimates, insights and advice")
	}

	oidcConfig, err := setupOIDC(ctx, cfg.OIDC)
	if err != nil {
		log.Fatal().Err(err).Str("issuer", cfg.OIDC.Issuer).Msg("oidc provider")
	}

	weightSvc := app.NewWeightService(r.weights, r.profiles)
	foodSvc := app.NewFoodService(r.food, r.profiles, estimator, logging.Component(log, "food"))
	profileSvc := app.NewProfileService(r.profiles)
	symptomSvc := app.NewSymptomService(r.symptoms)
	analyticsSvc := app.NewAnalyticsService(foodSvc, profileSvc, r.weights)
	insightSvc := app.NewInsightService(generator, analyticsSvc, profileSvc, logging.Component(log, "insights"))
	adviceSvc := app.NewAdviceService(advisor, foodSvc, symptomSvc, profileSvc, logging.Component(log, "advice"))
	exportSvc := app.NewExportService(profileSvc, foodSvc, weightSvc, symptomSvc)
	syncSvc := app.NewSyncService(r.ledger, foodSvc, weightSvc, symptomSvc, profileSvc, m, logging.Component(log, "sync"))
	authSvc := app.NewAuthService(r.users, r.sessions)

	srv := adapthttp.New(adapthttp.Services{
		Weight:    weightSvc,
		Food:      foodSvc,
		Profile:   profileSvc,
		Symptoms:  symptomSvc,
		Analytics: analyticsSvc,
		Insights:  insightSvc,
		Advice:    adviceSvc,
		Export:    exportSvc,
		Sync:      syncSvc,
		Auth:      authSvc,
	}, oidcConfig, cfg.WebDir, logging.Component(log, "http")).WithMetrics(m, m.Handler())
	if cfg.DisableAuth {
		log.Warn().Msg("authentication disabled")
		srv.WithoutAuth()
	}

	go purgeSessions(ctx, authSvc, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serve")
	}
	log.Info().Msg("stopped")
}

func openRepos(cfg config.Config, log zerolog.Logger) (repos, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
		db := memory.New()
		return repos{
			weights: db, food: db, symptoms: db, profiles: db, ledger: db, users: db,
			sessions: db.NewSessionRepo(),
			close:    func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return repos{}, err
	}
	return repos{
		weights: db, food: db, symptoms: db, profiles: db, ledger: db, users: db,
		sessions: postgres.NewSessionRepo(db),
		close:    db.Close,
	}, nil
}

func setupOIDC(ctx context.Context, c config.OIDC) (adapthttp.OIDCConfig, error) {
	if !c.Enabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, c.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func purgeSessions(ctx context.Context, auth *app.AuthService, log zerolog.Logger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := auth.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("purge expired sessions")
				continue
			}
			if n > 0 {
				log.Debug().Int("sessions", n).Msg("purged expired sessions")
			}
		}
	}
}
