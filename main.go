package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/tripod/agent"
	"github.com/samuelfneumann/tripod/environment/envconfig"
	"github.com/samuelfneumann/tripod/environment/tripod"
	"github.com/samuelfneumann/tripod/experiment"
	"github.com/samuelfneumann/tripod/experiment/tracker"
	"github.com/samuelfneumann/tripod/experiment/trackers"
	_ "github.com/samuelfneumann/tripod/physics/planar"
	ts "github.com/samuelfneumann/tripod/timestep"
	"github.com/samuelfneumann/tripod/utils/progressbar"
	"github.com/samuelfneumann/tripod/viewer"
)

func main() {
	configPath := flag.String("config", "", "JSON environment configuration")
	steps := flag.Uint("steps", 1000, "number of environment steps to run")
	agentName := flag.String("agent", "zero", "agent to run: zero or random")
	frames := flag.String("frames", "", "directory to write PNG frames to")
	out := flag.String("out", ".", "directory to save tracked data to")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(*level)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *level)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: logLevel}))

	if err := run(logger, *configPath, *steps, *agentName, *frames,
		*out); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath string, steps uint, agentName,
	frames, out string) error {
	config := envconfig.Default()
	if configPath != "" {
		var err error
		if config, err = envconfig.Load(configPath); err != nil {
			return err
		}
	}
	logger.Debug("configuration", "config", fmt.Sprintf("%+v", config))

	env, _, err := config.Create()
	if err != nil {
		return err
	}
	defer env.Close()
	logger.Info("environment created", "engine", config.Engine,
		"model", config.ModelPath, "nq", env.Physics().NQ(),
		"nv", env.Physics().NV(), "nu", env.Physics().NU())

	var a agent.Agent
	switch agentName {
	case "zero":
		a = agent.NewZero(env.ActionSpec())
	case "random":
		if a, err = agent.NewUniformRandom(env.ActionSpec(),
			config.Seed); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown agent %q", agentName)
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	returns := trackers.NewReturn(filepath.Join(out, "returns.bin"))
	lengths := trackers.NewEpisodeLength(filepath.Join(out, "lengths.bin"))
	root := env.Task().(*tripod.StandUp).Creature().Model().Identifier("base")
	heights := trackers.NewHeight(filepath.Join(out, "heights.bin"),
		env.Physics(), root)

	exp := experiment.NewOnline(env, a, steps, returns, lengths, heights)
	if frames != "" {
		v, err := viewer.New(env.Task().RootEntity().Model(), env.Physics(),
			frames)
		if err != nil {
			return err
		}
		exp.Register(tracker.Register(v, env))
		logger.Info("writing frames", "dir", frames)
	}

	bar := progressbar.NewManualProgressBar(os.Stdout, 50, int(steps))
	exp.OnStep = func(step ts.TimeStep) {
		bar.Increment()
		bar.Display()
		if step.Last() {
			logger.Debug("episode ended", "steps", step.Number,
				"end", step.EndType())
		}
	}

	if err := exp.Run(); err != nil {
		bar.Close()
		return err
	}
	bar.Close()

	if err := exp.Save(); err != nil {
		return err
	}
	logger.Info("experiment finished", "steps", exp.Steps(),
		"returns", returns.Returns())
	return nil
}
