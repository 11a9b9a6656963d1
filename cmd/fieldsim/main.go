// Command fieldsim runs a simulation from a JSON configuration, streaming
// trace records into a SQLite database and logging progress. It is the run
// harness around the core: config loading, seeding, cancellation, and
// persistence all live here, not in internal/sim.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/essencefield/fieldsim/internal/sim"
	"github.com/essencefield/fieldsim/internal/trace"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to config JSON (default config when empty)")
	dbPath := flag.String("db", envOr("FIELDSIM_DB", "fieldsim.db"), "trace database path")
	ticks := flag.Int("ticks", 0, "override configured tick count")
	seed := flag.Int64("seed", 0, "override configured seed")
	logEvery := flag.Int("log-every", 100, "log progress every N ticks")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	if *ticks > 0 {
		cfg.Ticks = *ticks
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	if err := run(cfg, *dbPath, *logEvery, logger); err != nil {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(cfg sim.Config, dbPath string, logEvery int, logger *slog.Logger) error {
	s, err := sim.New(cfg, logger)
	if err != nil {
		return err
	}

	store, err := trace.NewStore(dbPath, cfg.Name, cfg)
	if err != nil {
		return fmt.Errorf("open trace store: %w", err)
	}
	defer store.Close()
	logger.Info("trace store ready", "db", dbPath, "run", store.RunID())

	// SIGINT/SIGTERM stop the run at the next tick boundary; the committed
	// state in the store stays consistent.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = s.Run(ctx, func(res sim.StepResult) error {
		if err := store.RecordTick(res); err != nil {
			return fmt.Errorf("persist tick %d: %w", res.Tick, err)
		}
		if logEvery > 0 && res.Tick%uint64(logEvery) == 0 {
			m := trace.Aggregate(res.Records)
			logger.Info("tick",
				"t", res.Tick,
				"essence", m.AverageEssence,
				"clusters", m.ClusterStability*10,
				"vel_stability", m.VelocityStability,
			)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", "completed_ticks", s.Tick())
			return nil
		}
		return err
	}

	logger.Info("run complete",
		"ticks", s.Tick(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	printSummary(s, store)
	return nil
}

func printSummary(s *sim.Sim, store *trace.Store) {
	history, err := store.MetricsHistory(store.RunID())
	if err != nil || len(history) == 0 {
		return
	}
	final := history[len(history)-1]
	warnings, _ := store.WarningCount(store.RunID())

	fmt.Println("===== final metrics =====")
	fmt.Printf("attention entropy:   %.4f\n", final.AttentionEntropy)
	fmt.Printf("memory diversity:    %.4f\n", final.MemoryDiversity)
	fmt.Printf("velocity stability:  %.4f\n", final.VelocityStability)
	fmt.Printf("identity coherence:  %.4f\n", final.IdentityCoherence)
	fmt.Printf("cluster stability:   %.4f\n", final.ClusterStability)
	fmt.Printf("affective strength:  %.4f\n", final.AffectiveStrength)
	fmt.Printf("average essence:     %.4f\n", final.AverageEssence)
	fmt.Printf("warnings:            %d\n", warnings)

	if snap, err := s.Snapshot(0); err == nil {
		fmt.Printf("entity 0: pos=%v essence=%.2f memory=%d nodes / %d clusters\n",
			snap.Position, snap.Essence, snap.MemoryNodes, snap.Clusters)
	}
}

// #endregion run

// #region config

func loadConfig(path string) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// #endregion config

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
