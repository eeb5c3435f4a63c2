// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/muxo-dispatch/internal/config"
	"github.com/unclebandit/muxo-dispatch/internal/controller"
	"github.com/unclebandit/muxo-dispatch/internal/db"
	"github.com/unclebandit/muxo-dispatch/internal/handler"
	"github.com/unclebandit/muxo-dispatch/internal/inbox"
	"github.com/unclebandit/muxo-dispatch/internal/logging"
	"github.com/unclebandit/muxo-dispatch/internal/maintenance"
	"github.com/unclebandit/muxo-dispatch/internal/metrics"
	"github.com/unclebandit/muxo-dispatch/internal/notify"
	"github.com/unclebandit/muxo-dispatch/internal/progress"
	"github.com/unclebandit/muxo-dispatch/internal/queue"
	"github.com/unclebandit/muxo-dispatch/internal/repository"
	"github.com/unclebandit/muxo-dispatch/internal/service"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	if !cfg.DotEnvLoaded {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Outcome records
	var outboundRepo repository.OutboundMessageRepositoryInterface = repository.NewMemoryOutboundMessageRepository()
	if cfg.DBDSN != "" {
		conn, err := db.Open(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer func(conn *sql.DB) { _ = conn.Close() }(conn)
		outboundRepo = &repository.OutboundMessageRepository{DB: conn}
	}

	// Queue transport; without a broker delivery happens in-process
	var q queue.Queue = queue.NewInMemoryQueue()
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else if err := queue.StartDeliverySubscriber(q, cfg.QueueName, queue.MockSender(cfg.MockFailureRate)); err != nil {
		log.Fatal().Err(err).Msg("failed to start delivery subscriber")
	}

	listRepo := repository.NewListRepository()
	campaignRepo := repository.NewCampaignRepository()
	hub := progress.NewHub()

	scheduler := service.NewScheduler(ctx, &queue.Transport{Queue: q, Topic: cfg.QueueName}, campaignRepo)
	scheduler.OutboundRepo = outboundRepo

	promSink := metrics.New(scheduler.ActiveCount)
	sinks := service.Sinks{hub, promSink}
	if cfg.StatusWebhookURL != "" {
		webhook := notify.NewWebhook(cfg.StatusWebhookURL, cfg.WebhookRPS)
		go webhook.Run(ctx)
		sinks = append(sinks, webhook)
	}
	scheduler.Sink = sinks

	contactService := service.NewContactService(listRepo)
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ListRepo:     listRepo,
		OutboundRepo: outboundRepo,
		Scheduler:    scheduler,
	}

	if cfg.InboxDir != "" {
		watcher, err := inbox.NewWatcher(cfg.InboxDir, contactService)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start inbox watcher")
		}
		go watcher.Run(ctx)
	}

	pruner, err := maintenance.StartPruner(cfg.PruneSchedule, cfg.TerminalTTL, scheduler)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start pruner")
	}
	defer pruner.Stop()

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
		Hub:             hub,
	}
	contactHandler := &handler.ContactHandler{
		Contacts:  contactService,
		Campaigns: campaignService,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	campaignController.Routes(r)
	contactHandler.Routes(r)
	r.Handle("/metrics", promSink.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
