package main

import (
	"flag"
	"io"
	"os"
	"strings"

	"library/crdtsim/config"
	"library/crdtsim/network"
	"library/crdtsim/scenario"
	"library/crdtsim/user"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Functions

// initLogger initializes a gokit-logger in the
// requested format set to the according log level.
func initLogger(w io.Writer, format string, loglevel string) log.Logger {

	var logger log.Logger
	if strings.ToLower(format) == "json" {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}

	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger
}

// loadConfig merges config file, .env file and
// command-line flags, in increasing priority.
func loadConfig(configFile string, envFile string, loglevel string, scenarios string) (*config.Config, error) {

	conf := config.Default()
	if configFile != "" {
		c, err := config.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		conf = c
	}

	env, err := config.LoadEnv(envFile)
	if err != nil {
		return nil, err
	}

	if err := env.Apply(conf); err != nil {
		return nil, err
	}

	if loglevel != "" {
		conf.LogLevel = loglevel
	}

	if scenarios != "" {
		conf.Scenarios = strings.Split(scenarios, ",")
	}

	return conf, conf.Validate()
}

// run executes every configured scenario and
// reports the first one that fails.
func run(logger log.Logger, conf *config.Config, m *network.Metrics) error {

	for _, name := range conf.Scenarios {

		s, err := scenario.Lookup(name)
		if err != nil {
			return err
		}

		level.Info(logger).Log("msg", "running scenario", "scenario", s.Name)
		if err := s.Run(log.With(logger, "scenario", s.Name), m); err != nil {
			return err
		}
	}

	if conf.Random.Enabled {

		cfg := scenario.Random{
			Topology: conf.Random.Topology,
			Replicas: conf.Random.Replicas,
			Steps:    conf.Random.Steps,
			Seed:     conf.Random.Seed,
		}

		if conf.Output.DOTFile != "" {
			f, err := os.Create(conf.Output.DOTFile)
			if err != nil {
				return errors.Wrap(err, "failed to create topology file")
			}
			defer f.Close()
			cfg.DOT = f
		}

		level.Info(logger).Log("msg", "running random scenario", "topology", cfg.Topology, "seed", cfg.Seed)
		if err := scenario.RunRandom(cfg, log.With(logger, "scenario", "random"), m); err != nil {
			return err
		}
	} else if conf.Output.DOTFile != "" {
		level.Warn(logger).Log("msg", "topology output needs the random scenario enabled", "file", conf.Output.DOTFile)
	}

	return nil
}

// console runs the interactive simulator until
// the user quits.
func console(logger log.Logger, topology string, m *network.Metrics) error {

	c, err := user.NewConsole(topology, logger, m, os.Stdout)
	if err != nil {
		return err
	}

	rl, err := user.NewReadline()
	if err != nil {
		return errors.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	return user.RunInput(c, rl)
}

func main() {

	// Parse command-line flags.
	configFlag := flag.String("config", "", "Provide path to configuration file in TOML syntax.")
	envFlag := flag.String("env", ".env", "Provide path to an optional .env file with CRDTSIM_* overrides.")
	scenarioFlag := flag.String("scenario", "", "Comma separated scenarios to run, out of: "+strings.Join(scenario.Names(), ", ")+".")
	interactiveFlag := flag.String("interactive", "", "Start the console on a network of the given topology (p2p or star) instead of running scenarios.")
	loglevelFlag := flag.String("loglevel", "", "This flag sets the default logging level.")
	flag.Parse()

	conf, err := loadConfig(*configFlag, *envFlag, *loglevelFlag, *scenarioFlag)
	if err != nil {
		logger := initLogger(os.Stderr, "logfmt", "info")
		level.Error(logger).Log("msg", "failed to load the config", "err", err)
		os.Exit(1)
	}

	logger := initLogger(os.Stdout, conf.LogFormat, conf.LogLevel)

	m := newNetworkMetrics(conf.Output.PrometheusAddr)
	go runPromHTTP(logger, conf.Output.PrometheusAddr)

	if *interactiveFlag != "" {
		if err := console(logger, *interactiveFlag, m); err != nil {
			level.Error(logger).Log("msg", "console failed", "err", err)
			os.Exit(2)
		}
		return
	}

	if err := run(logger, conf, m); err != nil {
		level.Error(logger).Log("msg", "scenario failed", "err", err)
		os.Exit(3)
	}

	level.Info(logger).Log("msg", "all scenarios passed")
}
