package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/muxo-dispatch/internal/config"
	"github.com/unclebandit/muxo-dispatch/internal/logging"
	"github.com/unclebandit/muxo-dispatch/internal/queue"
)

// deliveryStats counts handset outcomes for the shutdown summary.
type deliveryStats struct {
	delivered atomic.Int64
	failed    atomic.Int64
}

func (s *deliveryStats) wrap(send queue.Sender) queue.Sender {
	return func(sms queue.OutboundSMS) error {
		if err := send(sms); err != nil {
			s.failed.Add(1)
			return err
		}
		s.delivered.Add(1)
		return nil
	}
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	if !cfg.DotEnvLoaded {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}

	if cfg.AMQPURL == "" {
		log.Fatal().Msg("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := queue.DialAMQP(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer q.Close()

	stats := &deliveryStats{}
	if err := queue.StartDeliverySubscriber(q, cfg.QueueName, stats.wrap(queue.MockSender(cfg.MockFailureRate))); err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	log.Info().Str("queue", cfg.QueueName).Msg("worker running, waiting for messages")
	<-ctx.Done()

	log.Info().
		Int64("delivered", stats.delivered.Load()).
		Int64("failed", stats.failed.Load()).
		Msg("worker stopped")
}
