package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/patrolhub/patrolhub/internal/config"
	"github.com/patrolhub/patrolhub/internal/database"
	"github.com/patrolhub/patrolhub/internal/tracker"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	logger  *slog.Logger
	config  *config.AppConfig
	dbm     *database.Manager
	tracker *tracker.Tracker
}

func NewApp(cfg *config.AppConfig) (*App, error) {
	db, err := database.GetDatabase(cfg.DB(), cfg.Bool("debug"))
	if err != nil {
		return nil, err
	}

	dbm := database.New(db)

	if err := dbm.Migrate(); err != nil {
		return nil, err
	}

	app := &App{
		logger:  slog.Default().With("logger", "app"),
		config:  cfg,
		dbm:     dbm,
		tracker: tracker.New(dbm, cfg.StorageTimeout()),
	}

	return app, nil
}

func (app *App) Run() {
	api := NewHttpApi(app, app.config.ApiAddr())

	go func() {
		if err := api.Listen(); err != nil {
			panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c
	app.logger.Info("exiting...")
}

func main() {
	fmt.Printf("version %s %s\n", gitRevision, gitBranch)

	debug := flag.Bool("debug", false, "debug mode")
	conf := flag.String("config", "patrolhub.yml", "name of config file")
	flag.Parse()

	cfg := config.NewAppConfig()
	cfg.Load(*conf)

	if err := cfg.LoadEnv("PATROLHUB_"); err != nil {
		panic(err)
	}

	_ = cfg.Set("debug", *debug)

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if *debug {
		opts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("init error", slog.Any("error", err))
		os.Exit(1)
	}

	app.Run()
}
