package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	apihttp "ozzus/checkplugin/internal/api/http"
	"ozzus/checkplugin/internal/backend"
	"ozzus/checkplugin/internal/checks"
	"ozzus/checkplugin/internal/config"
	"ozzus/checkplugin/internal/domain"
	"ozzus/checkplugin/internal/lib/logger/slogpretty"
	"ozzus/checkplugin/internal/platform"
	"ozzus/checkplugin/internal/repository"
	"ozzus/checkplugin/internal/repository/kafka"
	"ozzus/checkplugin/internal/service"
	"ozzus/checkplugin/internal/submit"
	"ozzus/checkplugin/pkg/plugin"
	"ozzus/checkplugin/pkg/status"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"

	exitUnknown = 3
)

type flags struct {
	host      string
	name      string
	port      int
	useSSL    bool
	verifySSL bool
	warning   int
	critical  int
	blob      string
	kind      string
	measure   string
	state     string
	message   string
	sleep     time.Duration
	submit    string
	checks    string
	relay     bool
}

func parseFlags(args []string) (*flags, error) {
	var f flags

	fs := pflag.NewFlagSet("checkplugin", pflag.ContinueOnError)
	fs.StringVarP(&f.host, "host", "H", "", "host the check runs against")
	fs.StringVarP(&f.name, "name", "n", "", "plugin name, e.g. check_http")
	fs.IntVarP(&f.port, "port", "p", plugin.DefaultPort, "service port")
	fs.BoolVar(&f.useSSL, "ssl", false, "connect with TLS")
	fs.BoolVar(&f.verifySSL, "verify-ssl", false, "verify the peer certificate")
	fs.IntVarP(&f.warning, "warning", "w", 0, "check time in seconds that raises WARNING")
	fs.IntVarP(&f.critical, "critical", "c", 0, "check time in seconds that raises CRITICAL")
	fs.StringVar(&f.blob, "blob", "", "YAML file handed to the measurement as its params")
	fs.StringVar(&f.kind, "kind", "active", "result kind: active, host or service")
	fs.StringVar(&f.measure, "measure", "dummy", "measurement to run")
	fs.StringVar(&f.state, "state", "", "state reported by the dummy measurement")
	fs.StringVar(&f.message, "message", "", "message reported by the dummy measurement")
	fs.DurationVar(&f.sleep, "sleep", 0, "delay before the dummy measurement reports")
	fs.StringVar(&f.submit, "submit", "", "override submit.mode for passive results")
	fs.StringVar(&f.checks, "checks", "", "run every check in this file")
	fs.BoolVar(&f.relay, "relay", false, "relay submissions from Kafka to the command file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &f, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return exitUnknown
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("%s %s: %v\n", plugin.NormalizeName(f.name), status.UNKNOWN, err)
		return exitUnknown
	}
	if f.submit != "" {
		cfg.Submit.Mode = f.submit
		if err := cfg.Validate(); err != nil {
			fmt.Printf("%s %s: %v\n", plugin.NormalizeName(f.name), status.UNKNOWN, err)
			return exitUnknown
		}
	}

	log := setupLogger(cfg.Env)

	switch {
	case f.relay:
		return runRelay(cfg, log)
	case f.checks != "":
		return runChecks(cfg, f.checks, log)
	default:
		return runSingle(cfg, f, log)
	}
}

func runSingle(cfg *config.Config, f *flags, log *slog.Logger) int {
	name := plugin.NormalizeName(f.name)
	fail := func(err error) int {
		fmt.Printf("%s %s: %v\n", name, status.UNKNOWN, err)
		return exitUnknown
	}

	kind, ok := status.ParseKind(f.kind)
	if !ok {
		return fail(fmt.Errorf("%w: unknown result kind %q", plugin.ErrConfiguration, f.kind))
	}

	blob, err := config.LoadBlob(f.blob)
	if err != nil {
		return fail(err)
	}

	if blob == nil {
		blob = make(map[string]any)
	}
	if f.state != "" {
		blob["state"] = f.state
	}
	if f.message != "" {
		blob["message"] = f.message
	}
	if f.sleep > 0 {
		blob["sleep"] = f.sleep.String()
	}

	pcfg := plugin.Config{
		Host:      f.host,
		Name:      f.name,
		Port:      f.port,
		UseSSL:    f.useSSL,
		VerifySSL: f.verifySSL,
		Warning:   f.warning,
		Critical:  f.critical,
		Blob:      blob,
	}

	m, err := checks.New(f.measure, kind, pcfg)
	if err != nil {
		return fail(err)
	}

	p, err := plugin.New(pcfg, m, plugin.WithLogger(log))
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := p.Check(ctx)
	if err != nil {
		return fail(err)
	}

	if !res.Kind().Passive() {
		fmt.Println(res.Message())
		return plugin.ExitCode(res)
	}

	sub, closeSub, err := newSubmitter(cfg, log)
	if err != nil {
		return fail(err)
	}
	defer closeSub()

	s := domain.NewSubmission(p.Host(), p.Name(), res, time.Now())
	if err := sub.Submit(ctx, s); err != nil {
		return fail(err)
	}

	log.Debug("passive result submitted",
		"submission_id", s.ID,
		"mode", cfg.Submit.Mode,
	)
	return plugin.ExitCode(res)
}

func runChecks(cfg *config.Config, path string, log *slog.Logger) int {
	specs, err := config.LoadChecks(path)
	if err != nil {
		log.Error("failed to load checks", "path", path, "error", err)
		return exitUnknown
	}

	sub, closeSub, err := newSubmitter(cfg, log)
	if err != nil {
		log.Error("failed to initialize submitter", "mode", cfg.Submit.Mode, "error", err)
		return exitUnknown
	}
	defer closeSub()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := service.NewRunner(sub, service.RunnerConfig{Concurrency: cfg.GetConcurrency()}, log)

	reports := runner.Run(ctx, specs)
	for _, rep := range reports {
		if rep.Failed() || rep.Kind == status.KindActive.String() {
			fmt.Println(rep.Output)
		}
	}
	return runExitCode(reports)
}

// runExitCode is the worst exit code of the active reports. A failed report
// of any kind exits UNKNOWN; passive codes never reach the process exit.
func runExitCode(reports []domain.Report) int {
	exit := 0
	for _, rep := range reports {
		switch {
		case rep.Failed():
			exit = max(exit, exitUnknown)
		case rep.Kind == status.KindActive.String():
			exit = max(exit, rep.Code)
		}
	}
	return exit
}

// newSubmitter builds the submitter for cfg.Submit.Mode. The returned func
// releases its connections.
func newSubmitter(cfg *config.Config, log *slog.Logger) (submit.Submitter, func(), error) {
	noop := func() {}

	switch cfg.Submit.Mode {
	case config.SubmitCommandFile:
		cf, err := submit.NewCommandFile(cfg.Submit.CommandFile, platform.Runtime{})
		if err != nil {
			return nil, noop, err
		}
		return cf, noop, nil
	case config.SubmitNRDP:
		client, err := backend.NewClient(cfg.NRDP.URL, cfg.NRDP.Token, cfg.GetNRDPTimeout())
		if err != nil {
			return nil, noop, err
		}
		return submit.NewNRDP(client), noop, nil
	case config.SubmitKafka:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closeProducer := func() {
			if err := producer.Close(); err != nil {
				log.Error("failed to close kafka producer", "error", err)
			}
		}
		return submit.NewKafka(repository.NewKafkaSubmissionRepository(producer, log)), closeProducer, nil
	default:
		return submit.NewWriter(os.Stdout), noop, nil
	}
}

func runRelay(cfg *config.Config, log *slog.Logger) int {
	log.Info("starting relay",
		"env", cfg.Env,
		"relay_id", cfg.Relay.ID,
	)

	sink, err := submit.NewCommandFile(cfg.Submit.CommandFile, platform.Runtime{})
	if err != nil {
		log.Error("failed to initialize command file", "error", err)
		return 1
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group, log)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checkCtx, checkCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := consumer.CheckConnection(checkCtx); err != nil {
		log.Warn("kafka is not reachable yet", "brokers", cfg.Kafka.Brokers, "error", err)
	}
	checkCancel()

	relay := service.NewRelay(
		repository.NewKafkaInboxRepository(consumer),
		sink,
		service.RelayConfig{RelayID: cfg.Relay.ID},
		log,
	)

	router := apihttp.NewRouter(apihttp.NewHealthController(relay, cfg.Relay.ID), log)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting relay service",
			"kafka_brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
			"command_file", cfg.Submit.CommandFile,
		)
		if err := relay.Start(ctx); err != nil {
			log.Error("relay service failed", "error", err)
			cancel()
		}
	}()

	httpServer := &nethttp.Server{
		Addr:    ":" + cfg.Relay.HealthPort,
		Handler: router,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting health server", "port", cfg.Relay.HealthPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down relay...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}

	wg.Wait()
	log.Info("relay stopped gracefully")
	return 0
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stderr)

	return slog.New(handler)
}
