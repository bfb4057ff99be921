package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leonelquinteros/gotext"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"upbit-alert-bot/config"
	"upbit-alert-bot/internal/alert"
	"upbit-alert-bot/internal/api"
	"upbit-alert-bot/internal/database"
	"upbit-alert-bot/internal/notify"
	"upbit-alert-bot/internal/upbit"
)

const upbitAPIBase = "https://api.upbit.com"

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")

	store, err := database.Open(config.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	upbitClient := upbit.NewClient(upbitAPIBase)
	catalog := upbit.NewCatalog(upbitClient, 5*time.Minute)

	notifier, err := buildNotifier()
	if err != nil {
		log.Fatalf("Failed to create notifier: %v", err)
	}

	engine := alert.NewEngine(store, upbitClient, notifier)
	interval := time.Duration(config.GetFloat64("poll_interval") * float64(time.Second))
	scheduler := alert.NewScheduler(engine, interval)

	ctx, cancel := context.WithCancel(context.Background())
	schedulerDone := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(schedulerDone)
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		s := <-sig
		log.Infof("received %s, shutting down...", s)
		cancel()
		// Let an in-flight tick finish before exiting.
		<-schedulerDone
		store.Close()
		os.Exit(0)
	}()

	if err := launchWebServer(config.GetInt("metrics_port"), store, catalog); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting upbit alert bot...")
}

func buildNotifier() (notify.Notifier, error) {
	switch config.GetString("notifier") {
	case "telegram":
		token := config.GetString("telegram_bot_token")
		if token == "" {
			return nil, errors.New("TELEGRAM_BOT_TOKEN not set")
		}
		return notify.NewTelegram(token)
	case "discord":
		token := config.GetString("discord_token")
		if token == "" {
			log.Warn("⚠️ DISCORD_TOKEN not set; alert delivery will fail")
		}
		return notify.NewDiscord(notify.DiscordConfig{Token: token}), nil
	default:
		return nil, errors.Errorf("unknown notifier %q", config.GetString("notifier"))
	}
}

func launchWebServer(port int, store *database.Store, catalog *upbit.Catalog) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	api.NewHandler(store, catalog).Register(mux)

	log.Infof("Launching web and metrics endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
