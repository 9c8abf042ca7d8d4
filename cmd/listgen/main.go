package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reellists/listgen/internal/auth"
	"github.com/reellists/listgen/internal/config"
	"github.com/reellists/listgen/internal/gemini"
	"github.com/reellists/listgen/internal/handler"
	"github.com/reellists/listgen/internal/logger"
	"github.com/reellists/listgen/internal/recommend"
	"github.com/reellists/listgen/internal/router"
	"github.com/reellists/listgen/internal/service"
	"github.com/reellists/listgen/internal/store"
	"github.com/reellists/listgen/internal/tmdb"
	"github.com/reellists/listgen/internal/trakt"
)

func main() {
	log := logger.New("listgen")

	root := &cobra.Command{
		Use:          "listgen",
		Short:        "AI-curated movie list generator",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(log), nightlyCmd(log), authorizeCmd(log), disconnectCmd(log))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func serveCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP trigger surface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, svc, cleanup, err := bootstrap(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer cleanup()

			log.Info().Str("addr", cfg.Addr()).Str("store", cfg.StoreDriver).Msg("server listening")
			return http.ListenAndServe(cfg.Addr(), router.Setup(handler.NewHandler(svc, log)))
		},
	}
}

func nightlyCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "nightly",
		Short: "Run the batch list update once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, svc, cleanup, err := bootstrap(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer cleanup()

			results, summary, err := svc.RunNightly(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range results {
				if !r.Success {
					log.Warn().Str("user", r.UserID).Str("error_kind", r.ErrorKind).Msg(r.Message)
				}
			}
			log.Info().Int("success", summary.SuccessCount).Int("failed", summary.FailedCount).Msg("nightly run complete")
			return nil
		},
	}
}

func authorizeCmd(log zerolog.Logger) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "authorize <userID>",
		Short: "Exchange an authorization code and store the user's tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			st, cleanup, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			traktClient := trakt.NewClient(trakt.Options{
				BaseURL:      cfg.TraktBaseURL,
				ClientID:     cfg.TraktClientID,
				ClientSecret: cfg.TraktClientSecret,
				RedirectURI:  cfg.TraktRedirectURI,
				Timeout:      cfg.RequestTimeout,
			}, log)
			creds := auth.NewManager(st, traktClient, cfg.TokenSafetyMargin, log)

			if err := creds.StoreInitialGrant(cmd.Context(), args[0], code); err != nil {
				return err
			}
			log.Info().Str("user", args[0]).Msg("user authorized")
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the OAuth redirect")
	cmd.MarkFlagRequired("code")
	return cmd
}

func disconnectCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <userID>",
		Short: "Remove the user's stored tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			st, cleanup, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := st.DeleteCredential(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info().Str("user", args[0]).Msg("credentials removed")
			return nil
		},
	}
}

func bootstrap(ctx context.Context, log zerolog.Logger) (*config.Config, *service.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	st, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	traktClient := trakt.NewClient(trakt.Options{
		BaseURL:      cfg.TraktBaseURL,
		ClientID:     cfg.TraktClientID,
		ClientSecret: cfg.TraktClientSecret,
		RedirectURI:  cfg.TraktRedirectURI,
		Timeout:      cfg.RequestTimeout,
	}, log)
	geminiClient := gemini.NewClient(gemini.Options{
		BaseURL: cfg.GeminiBaseURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.RequestTimeout,
	}, log)
	tmdbClient := tmdb.NewClient(tmdb.Options{
		BaseURL: cfg.TMDBBaseURL,
		APIKey:  cfg.TMDBAPIKey,
		Timeout: cfg.RequestTimeout,
	}, log)

	creds := auth.NewManager(st, traktClient, cfg.TokenSafetyMargin, log)
	svc := service.New(
		st,
		creds,
		traktClient,
		recommend.NewGenerator(geminiClient, log),
		recommend.NewEnricher(tmdbClient, log),
		trakt.NewSyncer(traktClient, log),
		cfg.NightlyConcurrency,
		log,
	)
	return cfg, svc, cleanup, nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		poolConfig, err := pgxpool.ParseConfig(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.DBPoolSize)
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := waitForDB(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("connected to PostgreSQL")
		return pg, pool.Close, nil

	default:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		rs := store.NewRedisStore(client, cfg.Namespace)
		if err := rs.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info().Msg("connected to Redis")
		return rs, func() { _ = client.Close() }, nil
	}
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		log.Info().Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("database connection timeout after 30s")
}
