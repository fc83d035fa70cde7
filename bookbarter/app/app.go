package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/bookbarter/bookbarter/config"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/cache"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/handler"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/mailer"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/repository"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/server"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/service"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/storage"
	"github.com/Astemirdum/bookbarter/bookbarter/migrations"
	"github.com/Astemirdum/bookbarter/pkg/auth"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/Astemirdum/bookbarter/pkg/logger"
	"github.com/Astemirdum/bookbarter/pkg/postgres"
	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "bookbarter")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %w", err)
	}
	defer db.Close()
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %w", err)
	}

	tokens := auth.NewTokens(cfg.Auth)
	var opts []service.Option

	if cfg.Redis.Enable {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis %w", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close", zap.Error(err))
			}
		}()
		opts = append(opts, service.WithUnreadCache(cache.NewUnreadCache(rdb, log)))
	}
	if cfg.MinIO.Enable {
		covers, err := storage.NewCoverStorage(ctx, cfg.MinIO, log)
		if err != nil {
			return fmt.Errorf("minio %w", err)
		}
		opts = append(opts, service.WithCoverStorage(covers))
	}
	if cfg.Mailer.Enabled() {
		opts = append(opts, service.WithMailer(mailer.New(cfg.Mailer, log)))
	}

	var (
		producer sarama.AsyncProducer
		consumer sarama.ConsumerGroup
	)
	if cfg.Kafka.Enable {
		if err = kafka.CreateTopics(cfg.Kafka, kafka.EventsTopic); err != nil {
			return fmt.Errorf("kafka.CreateTopics %w", err)
		}
		producer, err = kafka.NewAsyncProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka.NewAsyncProducer %w", err)
		}
		go statsLog(producer, log)
		opts = append(opts, service.WithPublisher(kafka.NewPublisher(producer, kafka.EventsTopic)))
	}

	svc := service.NewService(repo, tokens, log, opts...)

	if cfg.Kafka.Enable {
		consumer, err = kafka.NewConsumer(cfg.Kafka, kafka.EventsConsumerGroup)
		if err != nil {
			return fmt.Errorf("kafka.NewConsumer %w", err)
		}
		go kafka.Consume(ctx, consumer, handler.NewConsumer(svc.Track, log), log, kafka.EventsTopic)
	}

	h := handler.New(svc, tokens, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	cancel()
	if consumer != nil {
		if err = consumer.Close(); err != nil {
			log.Error("consumer.Close", zap.Error(err))
		}
	}
	if producer != nil {
		if err = producer.Close(); err != nil {
			log.Error("producer.Close", zap.Error(err))
		}
	}
	log.Info("Graceful shutdown finished")
	return nil
}

// statsLog drains producer errors; the channel must be read when Return.Errors is set.
func statsLog(producer sarama.AsyncProducer, log *zap.Logger) {
	for perr := range producer.Errors() {
		log.Warn("kafka produce", zap.String("topic", perr.Msg.Topic), zap.Error(perr.Err))
	}
}

// Migrate runs a goose command against the configured database.
func Migrate(cfg *config.Config, command string, args ...string) error {
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("db init %w", err)
	}
	defer db.Close()
	return postgres.Migrate(db, migrations.MigrationFiles, command, args...)
}
