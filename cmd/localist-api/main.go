// Command localist-api serves the consolidated venue catalog over HTTP
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"localist/internal/platform/config"
	"localist/internal/platform/logger"
	phttp "localist/internal/platform/net/http"
	"localist/internal/platform/net/middleware"
	"localist/internal/platform/store/pg"
	cataloghttp "localist/internal/services/catalog/http"
	"localist/internal/services/catalog/repo"
	"localist/internal/services/catalog/service"
)

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Named("api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New()
	apiCfg := cfg.Prefix("CORE_API_")
	pgCfg := cfg.Prefix("SERVICE_PGSQL_")

	client, err := pg.Open(ctx, pg.Config{
		URL:      pgCfg.MustString("DBURL"),
		MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 8)),
	})
	if err != nil {
		log.Error().Err(err).Msg("postgres connect failed")
		os.Exit(1)
	}
	defer client.Close()

	storage := repo.NewPostgres(client.Pool)
	if err := storage.EnsureSchema(ctx); err != nil {
		log.Error().Err(err).Msg("schema bootstrap failed")
		os.Exit(1)
	}

	svc := service.NewQuery(storage, service.QueryConfig{
		HardLimit: apiCfg.MayInt("HARD_LIMIT", 100),
	})

	srv := phttp.NewServer(apiCfg)
	r := srv.Router()
	r.Use(middleware.Defaults()...)
	r.Use(middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: []string{apiCfg.MayString("CORS_ORIGIN", "*")},
	}))
	r.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 2 * time.Second}))
	r.Use(middleware.Heartbeat("/healthz"))

	cataloghttp.Register(r, svc)
	phttp.MountSwagger(r, apiCfg.MayBool("SWAGGER", true))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown did not finish cleanly")
		}
	}()

	log.Info().Str("addr", srv.Addr()).Msg("catalog api listening")
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("bye")
}
