package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/luxlogik/raritycheck/internal/btc"
	"github.com/luxlogik/raritycheck/internal/coins"
	"github.com/luxlogik/raritycheck/internal/config"
	"github.com/luxlogik/raritycheck/internal/logging"
	"github.com/luxlogik/raritycheck/internal/resolver"
	"github.com/luxlogik/raritycheck/internal/server"
	"github.com/luxlogik/raritycheck/internal/util"
	"github.com/luxlogik/raritycheck/internal/view"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "config.yml", "Path to YAML config file")
	check := flag.String("check", "", "Resolve one collection, print it and exit")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, syncLogs, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer syncLogs()

	primary, err := btc.NewBulkProviderFromConfig(cfg.Blockchain.Primary.Provider)
	if err != nil {
		logger.Fatal("primary provider", zap.Error(err))
	}
	secondary, err := btc.NewAddressProviderFromConfig(cfg.Blockchain.Secondary.Provider)
	if err != nil {
		logger.Fatal("secondary provider", zap.Error(err))
	}

	res := resolver.New(primary, secondary, resolver.Options{
		Statuses: cfg.Statuses,
		PrimaryBackoff: util.Backoff{
			Attempts: cfg.Blockchain.Primary.Attempts,
			Initial:  cfg.Blockchain.Primary.Backoff,
			Max:      cfg.Blockchain.Primary.MaxBackoff,
		},
		RequestTimeout: max(cfg.Blockchain.Primary.Timeout, cfg.Blockchain.Secondary.Timeout),
		Concurrency:    cfg.Blockchain.Secondary.Concurrency,
		RatePerSecond:  cfg.Blockchain.Secondary.RatePerSecond,
		Burst:          cfg.Blockchain.Secondary.Burst,
		Metrics:        resolver.NewMetrics(prometheus.DefaultRegisterer),
	})
	srv := server.New(cfg, coins.NewLoader(cfg.DataDir), res, promhttp.Handler())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *check != "" {
		if err := runCheck(ctx, os.Stdout, srv, *check); err != nil {
			logger.Error("check failed", zap.String("collection", *check), zap.Error(err))
			syncLogs()
			os.Exit(1)
		}
		return
	}

	go func() {
		logger.Info("raritycheck serving",
			zap.String("version", Version),
			zap.String("listen", cfg.Server.ListenAddress),
			zap.Int("collections", len(cfg.Collections)),
			zap.String("primary", primary.Name()),
			zap.String("secondary", secondary.Name()))
		if err := srv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)
}

func runCheck(ctx context.Context, w io.Writer, srv *server.Server, id string) error {
	out, err := srv.Collection(ctx, id, "", view.Filter{})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (source: %s, batch: %s)\n", out.Name, out.Source, out.BatchID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range out.Types {
		fmt.Fprintf(tw, "\n%s\t%d coins\n", t.Name, t.Count)
		fmt.Fprintln(tw, "SERIAL\tADDRESS\tBALANCE\tSTATUS")
		for _, r := range t.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Serial, r.Address, r.Balance, r.StatusLabel())
		}
	}
	return tw.Flush()
}
