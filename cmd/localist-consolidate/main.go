// Command localist-consolidate merges per-file venue dumps into a single
// deduplicated catalog and prints a per-city summary
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"localist/internal/platform/config"
	"localist/internal/platform/logger"
	"localist/internal/platform/store/pg"
	"localist/internal/services/catalog/domain"
	"localist/internal/services/catalog/repo"
	"localist/internal/services/catalog/service"
)

const defaultDataDir = "/opt/localist/data/venues"

func main() {
	doImport := flag.Bool("import", false, "import the consolidated catalog into postgres")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [data-dir]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}
	logger.Init(logger.FromEnv())
	log := logger.Named("consolidate")

	cfg := config.New()
	dir := flag.Arg(0)
	if dir == "" {
		dir = cfg.Prefix("CORE_CATALOG_").MayString("DIR", defaultDataDir)
	}

	c := service.New(os.Stdout)
	res, outPath, err := c.Run(dir)
	if err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("consolidation failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log.Info().
		Int("venues", res.Total()).
		Int("cities", len(res.Counts)).
		Int("failed_files", len(res.Failures)).
		Str("output", outPath).
		Msg("catalog written")

	if *doImport {
		if err := importCatalog(cfg, res); err != nil {
			log.Error().Err(err).Msg("import failed")
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

func importCatalog(cfg config.Conf, res *domain.Result) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pgCfg := cfg.Prefix("SERVICE_PGSQL_")
	client, err := pg.Open(ctx, pg.Config{
		URL:      pgCfg.MustString("DBURL"),
		MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
	})
	if err != nil {
		return err
	}
	defer client.Close()

	storage := repo.NewPostgres(client.Pool)
	if err := storage.EnsureSchema(ctx); err != nil {
		return err
	}
	written, err := storage.ImportBatch(ctx, res.Records)
	if err != nil {
		return err
	}
	logger.Named("import").Info().
		Int64("written", written).
		Int("records", len(res.Records)).
		Msg("import complete")
	return nil
}
