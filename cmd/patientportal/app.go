package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientportal/internal/adapters/credentials"
	"github.com/zatekoja/patientportal/internal/application/services"
	"github.com/zatekoja/patientportal/internal/domain/providers"
	"github.com/zatekoja/patientportal/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/patientportal/internal/infrastructure/clients/redis"
	"github.com/zatekoja/patientportal/internal/infrastructure/observability"
	"github.com/zatekoja/patientportal/pkg/config"
	"github.com/zatekoja/patientportal/pkg/secrets"
)

// app holds the wired collaborators shared by every command
type app struct {
	cfg     *config.Config
	api     providers.ClinicAPI
	session *services.SessionService
	clock   providers.Clock
	loc     *time.Location

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:   cfg,
		clock: providers.SystemClock{},
	}

	loc, err := cfg.Booking.TimeLocation()
	if err != nil {
		return nil, err
	}
	a.loc = loc

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			a.closers = append(a.closers, shutdown)
			log.Debug().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	store, err := a.newStore(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	api, err := clinicapi.NewClient(cfg.API.BaseURL, clinicapi.Options{
		Timeout:        cfg.API.Timeout,
		RateLimitRPS:   cfg.API.RateLimitRPS,
		RateLimitBurst: cfg.API.RateLimitBurst,
		RetryAttempts:  cfg.API.RetryAttempts,
		Metrics:        metrics,
	})
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	a.api = api
	a.session = services.NewSessionService(api, store)
	return a, nil
}

func (a *app) newStore(ctx context.Context) (providers.CredentialStore, error) {
	switch a.cfg.Store.Driver {
	case config.StoreDriverRedis:
		client, err := redis.NewClient(ctx, &a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		log.Debug().Str("addr", a.cfg.Redis.RedisAddr()).Msg("Using Redis credential store")
		return credentials.NewRedisStore(client, a.cfg.Store.KeyPrefix), nil
	case config.StoreDriverVault:
		client, err := secrets.NewVaultClient(secrets.VaultConfig{
			Addr:      a.cfg.Vault.Addr,
			Token:     a.cfg.Vault.Token,
			Namespace: a.cfg.Vault.Namespace,
			Mount:     a.cfg.Vault.Mount,
			Path:      a.cfg.Vault.Path,
			KVVersion: a.cfg.Vault.KVVersion,
			Timeout:   a.cfg.Vault.Timeout,
		})
		if err != nil {
			return nil, err
		}
		log.Debug().Str("addr", a.cfg.Vault.Addr).Str("path", a.cfg.Vault.Path).Msg("Using Vault credential store")
		return credentials.NewVaultStore(client), nil
	case config.StoreDriverMemory:
		log.Debug().Msg("Using in-memory credential store; the session ends with the process")
		return credentials.NewMemoryStore(), nil
	default:
		log.Debug().Str("path", a.cfg.Store.Path).Msg("Using file credential store")
		return credentials.NewFileStore(a.cfg.Store.Path), nil
	}
}

func (a *app) history() *services.VisitHistory {
	return services.NewVisitHistory(a.session, a.api, a.clock, a.loc)
}

func (a *app) booking(dates providers.DatePicker, times providers.TimePicker) *services.BookingWorkflow {
	return services.NewBookingWorkflow(a.session, a.api, dates, times, a.clock, services.BookingOptions{
		MinuteInterval: a.cfg.Booking.MinuteInterval,
		Location:       a.loc,
	})
}

func (a *app) profiles() *services.ProfileService {
	return services.NewProfileService(a.session, a.api)
}

// close releases resources in reverse order of acquisition
func (a *app) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("Shutdown error")
		}
	}
	a.closers = nil
}
