package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/markets"
	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/metrics"
	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/persistence"
	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/store"
	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/workforce"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/runtime"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/internal/infrastructure/config"
	"github.com/guidryheal-create/trader.exe-sub001/internal/infrastructure/database"
	"github.com/guidryheal-create/trader.exe-sub001/internal/infrastructure/pidfile"
)

func main() {
	var (
		configPath string
		force      bool
		startAll   bool
	)

	rootCmd := &cobra.Command{
		Use:   "traderd",
		Short: "Autonomous trading daemon for DEX and prediction-market pipelines",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search ./config.yaml, ./configs, /etc/traderd)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoadConfig(configPath)
			return runDaemon(cfg, force, startAll)
		},
	}
	runCmd.Flags().BoolVar(&force, "force", false, "Replace a running daemon instance")
	runCmd.Flags().BoolVar(&startAll, "start-all", false, "Start both managers regardless of auto_start_on_boot")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cfg *config.Config, force, startAll bool) error {
	fmt.Printf("traderd starting (pid %d)\n", os.Getpid())

	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(force); err != nil {
		return fmt.Errorf("acquire pid file: %w (use --force to replace a running instance)", err)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("release pid file: %v", err)
		}
	}()

	clock := shared.NewRealClock()

	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// KV store with in-process fallback when the server is unreachable
	var kv store.KVStore
	redisStore := store.NewRedisStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	err = redisStore.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Printf("redis unreachable at %s, using in-process store: %v", cfg.Redis.Address, err)
		kv = store.NewMemoryStore()
	} else {
		fmt.Printf("Connected to redis at %s\n", cfg.Redis.Address)
		kv = redisStore
	}

	files := store.NewFileStore(cfg.Daemon.DataDir)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		pipelineCollector := metrics.NewPipelineMetricsCollector()
		executionCollector := metrics.NewExecutionMetricsCollector()
		tradeCollector := metrics.NewTradeMetricsCollector()
		for _, register := range []func() error{
			pipelineCollector.Register,
			executionCollector.Register,
			tradeCollector.Register,
		} {
			if err := register(); err != nil {
				return fmt.Errorf("register metrics collectors: %w", err)
			}
		}
		metrics.SetGlobalPipelineCollector(pipelineCollector)
		metrics.SetGlobalExecutionCollector(executionCollector)
		metrics.SetGlobalTradeCollector(tradeCollector)

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
		go func() {
			fmt.Printf("Metrics exposed on %s%s\n", cfg.Metrics.Address, cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	svc, err := runtime.NewService(runtime.Options{
		Clock:    clock,
		KV:       kv,
		Files:    files,
		Ledger:   persistence.NewGormTradeRepository(db, clock),
		Feed:     markets.NewGammaClientWithConfig(&cfg.Gamma, clock),
		Archiver: persistence.NewGormExecutionRepository(db),
		WorkforceFactory: func() interface{} {
			return workforce.NewOfflineWorkforce(clock)
		},
		WalletAddress: cfg.Daemon.WalletAddress,
	})
	if err != nil {
		return fmt.Errorf("build trader service: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if startAll {
		err = svc.Start(ctx)
	} else {
		err = svc.AutoStart(ctx)
	}
	if err != nil {
		return fmt.Errorf("start managers: %w", err)
	}

	fmt.Println("traderd is running, press Ctrl+C to stop")
	<-ctx.Done()
	fmt.Println("\nShutting down...")

	shutdownTimeout := cfg.Daemon.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	svc.Stop(shutdownCtx)
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics server shutdown: %v", err)
		}
	}

	fmt.Println("traderd stopped")
	return nil
}
