package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/config"
	"github.com/danielpatrickdp/ngl-gym/internal/driver"
	"github.com/danielpatrickdp/ngl-gym/internal/env"
	"github.com/danielpatrickdp/ngl-gym/internal/geometry"
	"github.com/danielpatrickdp/ngl-gym/internal/logging"
	"github.com/danielpatrickdp/ngl-gym/internal/metrics"
	"github.com/danielpatrickdp/ngl-gym/internal/recorder"
	"github.com/danielpatrickdp/ngl-gym/internal/reward"
	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to YAML config")
	dotenv := flag.String("dotenv", ".env", "path to .env file")
	dryRun := flag.Bool("dry-run", false, "use an in-process viewer instead of the gRPC driver")
	serve := flag.String("serve", "", "host the in-process viewer over gRPC on this address and exit on signal")
	flag.Parse()

	os.Exit(run(*configPath, *dotenv, *dryRun, *serve))
}

func run(configPath, dotenv string, dryRun bool, serveAddr string) int {
	if err := config.LoadDotEnv(dotenv); err != nil {
		fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
		return 2
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer logger.Sync()

	cat, err := catalog.New(cfg.Variant(), cfg.Catalog)
	if err != nil {
		logger.Error("build catalog", zap.Error(err))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveAddr != "" {
		return serveMemory(ctx, serveAddr, cfg, logger)
	}

	collector := metrics.NewCollector(cfg.Metrics.Namespace, logger)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(collector), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
		defer srv.Close()
		logger.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
	}

	var drv env.Driver
	if dryRun {
		drv = driver.NewMemory(defaultDocument(), cfg.Catalog.ImageWidth, cfg.Catalog.ImageHeight)
	} else {
		g, err := driver.Dial(cfg.Driver.Addr, logger)
		if err != nil {
			logger.Error("connect driver", zap.String("addr", cfg.Driver.Addr), zap.Error(err))
			return 1
		}
		defer g.Close()
		drv = g
	}

	opts := env.Options{
		EulerAngles: cfg.Env.EulerAngles,
		Timeout:     cfg.Driver.Timeout,
		Reward:      reward.FromCatalog(cat),
		MaxSteps:    cfg.Env.MaxSteps,
		Logger:      logger,
		Metrics:     collector,
	}
	if cfg.Recorder.DBPath != "" {
		store, err := recorder.NewStore(cfg.Recorder.DBPath)
		if err != nil {
			logger.Error("open recorder", zap.String("db", cfg.Recorder.DBPath), zap.Error(err))
			return 1
		}
		defer store.Close()
		store.Attach(&opts, cat)
	}

	e := env.New(drv, cat, opts)

	fmt.Println("ngl-gym environment ready.")
	fmt.Printf("  Catalog: %s (%d actions) | Layout: %s | Driver: %s\n",
		cat.Variant(), cat.Len(), e.Layout(), driverLabel(dryRun, cfg.Driver.Addr))
	fmt.Println("Commands: reset | <index> | c v1,v2,... | plan x y z | quit")

	sess := &session{env: e, out: os.Stdout}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		quit, err := sess.handle(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if quit || ctx.Err() != nil {
			break
		}
	}
	return 0
}

// #endregion main

// #region serve
func serveMemory(ctx context.Context, addr string, cfg *config.Config, logger *zap.Logger) int {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("listen", zap.String("addr", addr), zap.Error(err))
		return 1
	}
	mem := driver.NewMemory(defaultDocument(), cfg.Catalog.ImageWidth, cfg.Catalog.ImageHeight)
	srv := driver.NewServer(mem, logger)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	logger.Info("in-process viewer serving", zap.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil {
		logger.Error("serve", zap.Error(err))
		return 1
	}
	return 0
}

// #endregion serve

// #region helpers
func metricsMux(c *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return mux
}

func defaultDocument() *viewstate.Document {
	return viewstate.NewDocument(viewstate.ViewState{
		CrossSectionScale:     1,
		ProjectionOrientation: geometry.Quaternion{W: 1},
		ProjectionScale:       1000,
	})
}

func driverLabel(dryRun bool, addr string) string {
	if dryRun {
		return "in-process"
	}
	return addr
}

// #endregion helpers
