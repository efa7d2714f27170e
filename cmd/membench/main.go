package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"membench/internal/client"
	"membench/internal/config"
	"membench/internal/metrics"
	"membench/internal/profile"
	"membench/internal/progress"
	"membench/internal/report"
	"membench/internal/scenario"
	"membench/internal/validate"
)

// Exit codes
const (
	ExitSuccess       = 0
	ExitVerdictFailed = 1
	ExitError         = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	baseURL := flag.String("base-url", "", "target base URL (overrides config)")
	actors := flag.Int("actors", 0, "number of synthetic actors (overrides config)")
	profilesPath := flag.String("profiles", "", "CSV file of user profiles (generated when empty)")
	output := flag.String("output", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "suppress progress output during the run")
	verbose := flag.Bool("verbose", false, "enable debug output (request/response logging)")
	flag.Parse()

	if *output != "text" && *output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		os.Exit(ExitError)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *actors > 0 {
		cfg.Actors = *actors
	}
	if cfg.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "error: no target; set --base-url or baseUrl in the config")
		os.Exit(ExitError)
	}

	log := newLogger(*verbose)
	defer log.Sync()

	c := client.New(cfg.BaseURL,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(log))

	sink := metrics.NewSink(
		metrics.WithLatencyWarning(cfg.LatencyWarn),
		metrics.WithLogger(log))
	business := metrics.NewBusiness()
	validator := validate.New(validate.Factors{
		RemainingTimeFactor: cfg.Validation.RemainingTimeFactor,
		CreditFactor:        cfg.Validation.CreditFactor,
		Tolerance:           cfg.Validation.Tolerance,
	}, log)

	var opts []scenario.Option
	if *profilesPath != "" {
		src, err := profile.LoadCSV(*profilesPath, profile.ModeSequential)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		opts = append(opts, scenario.WithProfiles(src))
	}
	driver := scenario.New(cfg, c, sink, business, validator, log, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("interrupt received, cancelling run")
		cancel()
	}()

	prog := progress.New(sink, log, *quiet)
	prog.Start()
	verdict, err := driver.Run(ctx)
	prog.Stop()

	if err != nil {
		if errors.Is(err, scenario.ErrServiceDown) {
			fmt.Fprintf(os.Stderr, "error: target not reachable: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(ExitError)
	}

	if *output == "json" {
		report.FormatJSON(os.Stdout, verdict)
	} else {
		report.FormatText(os.Stdout, verdict)
	}

	if !verdict.Passed {
		os.Exit(ExitVerdictFailed)
	}
	os.Exit(ExitSuccess)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(verbose bool) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}
