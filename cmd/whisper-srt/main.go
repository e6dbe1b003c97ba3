// Command whisper-srt serves audio transcription as SRT/VTT subtitles over
// HTTP, synchronously on POST /transcribe and as background tasks on
// POST /tasks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/whisper-srt/api"
	"github.com/kbukum/whisper-srt/auth"
	"github.com/kbukum/whisper-srt/auth/apikey"
	"github.com/kbukum/whisper-srt/auth/jwt"
	"github.com/kbukum/whisper-srt/bootstrap"
	"github.com/kbukum/whisper-srt/config"
	"github.com/kbukum/whisper-srt/events"
	"github.com/kbukum/whisper-srt/kafka"
	"github.com/kbukum/whisper-srt/kafka/producer"
	"github.com/kbukum/whisper-srt/logger"
	"github.com/kbukum/whisper-srt/observability"
	"github.com/kbukum/whisper-srt/redis"
	"github.com/kbukum/whisper-srt/resilience"
	"github.com/kbukum/whisper-srt/server"
	"github.com/kbukum/whisper-srt/server/endpoint"
	"github.com/kbukum/whisper-srt/server/middleware"
	"github.com/kbukum/whisper-srt/service"
	"github.com/kbukum/whisper-srt/storage"
	_ "github.com/kbukum/whisper-srt/storage/local"
	_ "github.com/kbukum/whisper-srt/storage/s3"
	"github.com/kbukum/whisper-srt/task"
	"github.com/kbukum/whisper-srt/transcription"
	"github.com/kbukum/whisper-srt/util"
	"github.com/kbukum/whisper-srt/version"
	"github.com/kbukum/whisper-srt/worker"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	showVersion := flag.Bool("version", false, "print version and exit")
	subject := flag.String("subject", "", "token subject for issue-token")
	scope := flag.String("scope", "", "token scope for issue-token")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [serve|issue-token|generate-apikey]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "", "serve":
		err = serve(*configFile)
	case "generate-apikey":
		err = generateAPIKey()
	case "issue-token":
		err = issueToken(*configFile, *subject, *scope)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "whisper-srt:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*Config, *config.Loader, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg := &Config{}
	loader, err := config.Load(serviceName, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}
	return cfg, loader, nil
}

func serve(configFile string) error {
	cfg, loader, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	loader.Watch(func(ev fsnotify.Event, l *config.Loader) {
		level := l.GetString("logging.level")
		if level == "" {
			return
		}
		logger.SetLevel(level)
		log.Info("Log level reloaded", logger.Fields("level", level, "file", ev.Name))
	})

	if err := wire(app); err != nil {
		return err
	}
	return app.Run(context.Background())
}

// wire builds every component and registers them in start order. The
// server goes last so it stops first and in-flight requests finish while
// the pool and stores are still up.
func wire(app *bootstrap.App[*Config]) error {
	cfg, log := app.Cfg, app.Logger

	telemetry := observability.NewComponent(cfg.Tracing, cfg.Metrics, observability.Resource{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
	}, log)
	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return err
	}
	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}

	tasks, statsSources, err := newTaskStore(app)
	if err != nil {
		return err
	}

	results, err := storage.NewComponent(cfg.Storage, log)
	if err != nil {
		return err
	}
	if err := app.RegisterComponent(results); err != nil {
		return err
	}

	provider, err := newProvider(cfg.Transcription)
	if err != nil {
		return err
	}
	if err := app.RegisterComponent(transcription.NewComponent(provider, cfg.Transcription.Config, log)); err != nil {
		return err
	}

	publisher, err := newEventPublisher(app)
	if err != nil {
		return err
	}

	pool := worker.New(cfg.Worker, log, metrics)
	if err := app.RegisterComponent(worker.NewComponent(pool)); err != nil {
		return err
	}
	statsSources = append(statsSources, func() (string, any) { return "worker", pool.Stats() })

	syncSlots := resilience.NewBulkhead(cfg.Sync)
	statsSources = append(statsSources, func() (string, any) {
		return "sync", map[string]int{"in_use": syncSlots.InUse(), "max": syncSlots.MaxConcurrent()}
	})

	svc, err := service.New(cfg.Uploads, service.Deps{
		Provider: provider,
		Tasks:    tasks,
		Results:  results.Storage(),
		Pool:     pool,
		Bulkhead: syncSlots,
		Events:   publisher,
		Metrics:  metrics,
	}, log)
	if err != nil {
		return err
	}

	authMW, err := auth.Middleware(cfg.Auth)
	if err != nil {
		return err
	}
	if authMW == nil && cfg.IsProduction() {
		log.Warn("Authentication is disabled in production")
	}
	srv := server.New(cfg.Server, log)
	if authMW != nil {
		srv.ApplyMiddleware(authMW)
	} else {
		srv.ApplyMiddleware()
	}
	engine := srv.GinEngine()
	engine.Use(middleware.GinMetrics(metrics))
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll, statsSources...)
	api.NewHandler(svc).Register(engine)
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	if app.Summary != nil {
		app.Summary.AddSetting("provider", cfg.Transcription.Provider)
		if cfg.Transcription.APIKey != "" {
			app.Summary.AddSetting("api key", util.MaskSecret(cfg.Transcription.APIKey, 4))
		}
		app.Summary.AddSetting("tasks", cfg.Tasks.Backend)
		app.Summary.AddSetting("auth", cfg.Auth.Describe())
		app.Summary.AddSetting("events", eventsSetting(cfg.Kafka))
	}
	return nil
}

func newTaskStore(app *bootstrap.App[*Config]) (task.Store, []endpoint.StatsSource, error) {
	cfg := app.Cfg
	switch cfg.Tasks.Backend {
	case backendRedis:
		rc, err := redis.NewComponent(cfg.Redis, app.Logger)
		if err != nil {
			return nil, nil, err
		}
		if err := app.RegisterComponent(rc); err != nil {
			return nil, nil, err
		}
		return task.NewRedisStore(rc.Client(), cfg.Tasks.KeyPrefix, task.WithTTL(cfg.Tasks.TTL)), nil, nil
	default:
		store := task.NewMemoryStore()
		return store, []endpoint.StatsSource{
			func() (string, any) { return "tasks", map[string]int{"records": store.Len()} },
		}, nil
	}
}

func newEventPublisher(app *bootstrap.App[*Config]) (events.Publisher, error) {
	cfg := app.Cfg
	if !cfg.Kafka.Enabled {
		return events.Nop{}, nil
	}
	p, err := producer.NewProducer(cfg.Kafka, app.Logger)
	if err != nil {
		return nil, err
	}
	kc := kafka.NewComponent(cfg.Kafka, app.Logger)
	kc.SetProducer(p)
	if err := app.RegisterComponent(kc); err != nil {
		return nil, err
	}
	return events.NewKafkaPublisher(producer.NewPublisher(p), cfg.Name, app.Logger), nil
}

func eventsSetting(cfg kafka.Config) string {
	if !cfg.Enabled {
		return "disabled"
	}
	return "kafka topic=" + cfg.Topic
}

func generateAPIKey() error {
	key, hash, err := apikey.Generate()
	if err != nil {
		return err
	}
	fmt.Printf("key:  %s\nhash: %s\n", key, hash)
	return nil
}

func issueToken(configFile, subject, scope string) error {
	if subject == "" {
		return fmt.Errorf("issue-token requires -subject")
	}
	cfg, _, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if cfg.Auth.JWT == nil {
		return fmt.Errorf("auth.jwt is not configured")
	}
	cfg.Auth.JWT.ApplyDefaults()
	svc, err := jwt.NewService(*cfg.Auth.JWT)
	if err != nil {
		return err
	}
	token, err := svc.Issue(subject, scope)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
