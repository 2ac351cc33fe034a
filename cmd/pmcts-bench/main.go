// Command pmcts-bench runs the search engine against one of the
// internal/envtest reference environments and reports the recommended
// root action, its value estimate and the trial throughput achieved.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"k8s.io/klog/v2"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/envtest"
	"github.com/parallelmcts/pmcts/internal/mcts"
	"github.com/parallelmcts/pmcts/internal/profilers"
)

var (
	flagScenario  = flag.String("scenario", "chain", "Scenario to run: chain, frozenlake, selector, gridworld.")
	flagConfig    = flag.String("config", "", "Comma-separated algorithm=value,key=value configuration string, see internal/config.")
	flagMaxTrials = flag.Int("max_trials", 10000, "Maximum number of trials to run, 0 for unbounded.")
	flagMaxTime   = flag.Duration("max_time", 5*time.Second, "Maximum wall-clock time to search, 0 for unbounded.")
	flagWorkers   = flag.Int("workers", 0, "Number of worker goroutines, 0 for runtime.NumCPU().")
	flagCSV       = flag.String("csv", "", "If set, path to write periodic CSV search-progress snapshots to.")
	flagLogTrials = flag.Int("log_every_trials", 1000, "Emit a CSV row at least every this many completed trials.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	profilers.Setup(ctx)
	defer profilers.OnQuit()

	params := config.NewFromConfigString(*flagConfig)
	cfg, err := config.New(params)
	if err != nil {
		klog.Exitf("pmcts-bench: invalid configuration: %v", err)
	}

	var logWriter io.Writer
	if *flagCSV != "" {
		f, err := os.Create(*flagCSV)
		if err != nil {
			klog.Exitf("pmcts-bench: could not create %s: %v", *flagCSV, err)
		}
		defer f.Close()
		logWriter = f
	}

	switch *flagScenario {
	case "chain":
		runChain(ctx, cfg, logWriter)
	case "frozenlake":
		runFrozenLake(ctx, cfg, logWriter)
	case "selector":
		runSelector(ctx, cfg, logWriter)
	case "gridworld":
		runGridWorld(ctx, cfg, logWriter)
	default:
		klog.Exitf("pmcts-bench: unknown scenario %q", *flagScenario)
	}
}

func runChain(ctx context.Context, cfg config.Config, logWriter io.Writer) {
	chain, err := envtest.NewChainEnv(10)
	if err != nil {
		klog.Exitf("pmcts-bench: %v", err)
	}
	s := mcts.New[int, envtest.Move, int](cfg, chain, nil, nil, *flagWorkers, logWriter, *flagLogTrials, 0)
	report(ctx, s, cfg)
}

func runFrozenLake(ctx context.Context, cfg config.Config, logWriter io.Writer) {
	cfg.IsTwoPlayerGame = false
	lake := envtest.NewClassicFrozenLake8x8()
	s := mcts.New[envtest.Cell, envtest.Direction, envtest.Cell](cfg, lake, nil, nil, *flagWorkers, logWriter, *flagLogTrials, 0)
	report(ctx, s, cfg)
}

func runSelector(ctx context.Context, cfg config.Config, logWriter io.Writer) {
	cfg.IsTwoPlayerGame = true
	game := envtest.SelectorGameEnv{InitialPile: 21, MaxTake: 3}
	s := mcts.New[envtest.NimState, int, envtest.NimState](cfg, game, nil, nil, *flagWorkers, logWriter, *flagLogTrials, 0)
	report(ctx, s, cfg)
}

func runGridWorld(ctx context.Context, cfg config.Config, logWriter io.Writer) {
	cfg.UseTranspositionTable = true
	if cfg.NumTranspositionTableMutexes <= 0 {
		cfg.NumTranspositionTableMutexes = 16
	}
	world := envtest.GridWorldEnv{Size: 5, Goal: envtest.GridCell{Row: 4, Col: 4}}
	s := mcts.New[envtest.GridCell, envtest.Direction, envtest.GridCell](cfg, world, nil, nil, *flagWorkers, logWriter, *flagLogTrials, 0)
	report(ctx, s, cfg)
}

// report runs the search and prints the recommended action and estimated
// value of a generically-typed Search, since the concrete S/A/O types
// differ per scenario and main can't be generic itself.
func report[S comparable, A comparable, O comparable](ctx context.Context, s *mcts.Search[S, A, O], cfg config.Config) {
	start := time.Now()
	if err := s.Run(ctx, *flagMaxTrials, *flagMaxTime); err != nil {
		klog.Warningf("pmcts-bench: search reported errors: %v", err)
	}
	elapsed := time.Since(start)

	action, idx := s.RecommendAction()
	trials := s.Root.NumBackups()
	rate := float64(trials) / elapsed.Seconds()
	fmt.Printf("algorithm=%s scenario=%s trials=%d elapsed=%s rate=%.0f trials/s\n",
		cfg.Algorithm, *flagScenario, trials, elapsed, rate)
	fmt.Printf("recommended action[%d]=%v value=%.4f\n", idx, action, s.Value())
}
