package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rustyeddy/updown/config"
	"github.com/rustyeddy/updown/engine"
	"github.com/rustyeddy/updown/journal"
	"github.com/rustyeddy/updown/ledger"
	"github.com/rustyeddy/updown/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a tick scenario through the engine",
	Long: `Run replays a scenario file (a YAML sequence of tick steps: prices,
signal, snapshot fields, delays) through the engine against the persisted
ledger, journaling every trade event.

Example:
  updown run -f examples/configs/basic.yaml -s examples/scenarios/btc-hourly.yaml`,
	RunE: runRun,
}

var (
	runConfigPath   string
	runScenarioPath string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringVarP(&runScenarioPath, "scenario", "s", "", "path to scenario file (required)")
	runCmd.MarkFlagRequired("scenario")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	log, err := buildLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	sc, err := config.LoadScenario(runScenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	ctx := context.Background()
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	led, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	sinks, closers, err := buildSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if cfg.Metrics.Listen != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", metrics.Handler())
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Listen, r); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		log.Info("serving metrics", zap.String("listen", cfg.Metrics.Listen))
	}

	eng := engine.New(cfg.Engine.Policy(), led, store, log, sinks...)

	fmt.Printf("Replaying %d ticks (starting balance $%.2f)\n\n", len(sc.Steps), led.Balance)

	clock := time.Now().UTC()
	var opens, closes int
	for i, step := range sc.Steps {
		delay, err := step.ParseDelay()
		if err != nil {
			return fmt.Errorf("invalid delay in step %d: %w", i, err)
		}
		clock = clock.Add(delay)

		for _, ev := range eng.OnTick(ctx, step.Input(clock)) {
			switch ev.Type {
			case journal.EventOpen:
				opens++
				fmt.Printf("  OPEN  %-4s %s @ %.4f  stake %.2f  balance %.2f\n",
					ev.Side, ev.MarketID, ev.Price, ev.Amount, ev.BalanceAfter)
			case journal.EventClose:
				closes++
				fmt.Printf("  CLOSE %-4s %s @ %.4f  pnl %+.2f  %-20s balance %.2f\n",
					ev.Side, ev.MarketID, ev.Price, *ev.PnL, ev.Reason, ev.BalanceAfter)
			}
		}
	}

	fmt.Printf("\nDone: %d opens, %d closes, %d still open\n", opens, closes, led.OpenCount())
	fmt.Printf("Final balance: $%.2f\n", led.Balance)
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func buildStore(cfg *config.Config) (ledger.Store, error) {
	switch cfg.State.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.State.RedisAddr})
		key := cfg.State.RedisKey
		if key == "" {
			key = "updown:state"
		}
		return ledger.NewRedisStore(rdb, key, cfg.Engine.InitialBalance), nil
	default:
		return ledger.NewFileStore(cfg.State.Path, cfg.Engine.InitialBalance), nil
	}
}

func buildSinks(ctx context.Context, cfg *config.Config) ([]journal.Journal, []journal.Journal, error) {
	sinks := []journal.Journal{metrics.NewRecorder()}
	var closers []journal.Journal

	var j journal.Journal
	var err error
	switch cfg.Journal.Type {
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.EventsFile)
	case "postgres":
		j, err = journal.NewPostgres(ctx, cfg.Journal.PostgresDSN)
	case "none":
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create journal: %w", err)
	}
	if j != nil {
		sinks = append(sinks, j)
		closers = append(closers, j)
	}
	return sinks, closers, nil
}
