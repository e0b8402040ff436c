package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/gowarehouse/environment/envconfig"
	"github.com/samuelfneumann/gowarehouse/experiment"
	"github.com/samuelfneumann/gowarehouse/experiment/render"
	"github.com/samuelfneumann/gowarehouse/experiment/trackers"
	"gonum.org/v1/gonum/spatial/r1"
)

func main() {
	var (
		configPath = flag.String("config", "", "warehouse YAML configuration (default map if empty)")
		dumpConfig = flag.String("dump-config", "", "write the configuration to this path and exit")
		driver     = flag.String("driver", string(experiment.Planner), "agent driving the drone: random, sequence, or planner")
		actions    = flag.String("actions", "", "actions of the sequence driver, e.g. LLUURD")
		steps      = flag.Uint("steps", 1000, "total number of environment steps")
		seed       = flag.Uint64("seed", 1, "random seed")
		outDir     = flag.String("out", "results", "output directory")
		run        = flag.String("run", "run", "run name in the episode database")
		show       = flag.Bool("render", false, "draw the warehouse after every step")
		colour     = flag.Bool("colour", true, "use colours when drawing the warehouse")
		frames     = flag.Int("frames", 0, "save PNG frames with cells of this many pixels (0 disables)")
		progress   = flag.Bool("progress", false, "display a progress bar")
		verbose    = flag.Bool("v", false, "log environment events")
	)
	flag.Parse()

	conf := envconfig.Default()
	if *configPath != "" {
		var err error
		if conf, err = envconfig.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			os.Exit(1)
		}
	}
	if *dumpConfig != "" {
		if err := conf.Save(*dumpConfig); err != nil {
			fmt.Fprintln(os.Stderr, "dump config:", err)
			os.Exit(1)
		}
		return
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "output directory:", err)
		os.Exit(1)
	}

	c := experiment.Config{
		MaxSteps: *steps,
		EnvConf:  conf,
		Driver:   experiment.Driver(*driver),
		Actions:  *actions,
	}
	exp, w, err := c.CreateExp(*seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create experiment:", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "[warehouse] ", log.LstdFlags)
	exp.SetLogger(logger)
	if *verbose {
		w.SetLogger(logger)
	}
	if *progress {
		exp.ShowProgress(50)
	}

	out := func(name string) string { return filepath.Join(*outDir, name) }
	exp.Register(trackers.NewReturn(out("return.bin")))
	exp.Register(trackers.NewEpisodeLength(out("length.bin")))
	exp.Register(trackers.NewDeliveries(out("deliveries.bin"), w))
	exp.Register(trackers.NewStore(out("episodes.db"), *run, w))
	exp.Register(render.NewReturnChart(out("returns.html"),
		fmt.Sprintf("Warehouse returns (%v)", *driver)))

	trajectory, err := trackers.NewTrajectory(out("trajectory.jsonl.zst"), w)
	if err != nil {
		fmt.Fprintln(os.Stderr, "trajectory:", err)
		os.Exit(1)
	}
	exp.Register(trajectory)

	if *show {
		exp.Register(render.NewTerminal(os.Stdout, w, *colour))
	}
	if *frames > 0 {
		dir := out("frames")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintln(os.Stderr, "frames directory:", err)
			os.Exit(1)
		}
		f, err := render.NewFrames(dir, w, *frames,
			r1.Interval{Min: w.Min(), Max: w.Max()})
		if err != nil {
			fmt.Fprintln(os.Stderr, "frames:", err)
			os.Exit(1)
		}
		exp.Register(f)
	}

	if err := exp.Run(); err != nil {
		logger.Println("run:", err)
	}
	if err := exp.Save(); err != nil {
		fmt.Fprintln(os.Stderr, "save:", err)
		os.Exit(1)
	}

	logger.Printf("finished %d episodes, results in %v", exp.Episodes(),
		*outDir)
}
