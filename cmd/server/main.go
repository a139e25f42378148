package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"community/pkg/api"
	"community/pkg/config"
	"community/pkg/sensitive"
	"community/pkg/storage"
	"community/pkg/storage/memdb"
	"community/pkg/storage/mongo"
	"community/pkg/storage/postgres"
)

func main() {
	var (
		configPath  string
		wordsPath   string
		wordsURL    string
		storageKind string
		httpAddr    string
		logLevel    string
		kafkaAddr   string
		kafkaTopic  string
		kafkaBatch  int
	)

	flag.StringVar(&configPath, "config", "cmd/server/config.toml", "Path to TOML config file")
	flag.StringVar(&wordsPath, "words", "", "Path to the banned words list (.txt, .json, .toml, .yaml).")
	flag.StringVar(&wordsURL, "words-url", "", "URL of the banned words list, overrides -words.")
	flag.StringVar(&storageKind, "storage", "", "Storage backend: memory, postgres, mongo.")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&kafkaAddr, "kafka", "", "Kafka server address in the form 'host:port'.")
	flag.StringVar(&kafkaTopic, "topic", "", "Kafka topic.")
	flag.IntVar(&kafkaBatch, "batch", 0, "Kafka batch size.")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if wordsPath != "" {
		cfg.WordsPath = wordsPath
	}
	if wordsURL != "" {
		cfg.WordsURL = wordsURL
	}
	if storageKind != "" {
		cfg.Storage = storageKind
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if kafkaAddr != "" {
		cfg.KafkaAddr = kafkaAddr
	}
	if kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}
	if kafkaBatch != 0 {
		cfg.KafkaBatch = kafkaBatch
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[server] invalid configuration: %v", err)
	}

	config.SetLogLevel(cfg.LogLevel)

	if !strings.Contains(cfg.HTTPAddr, ":") {
		log.Warn("[server] use ':' before port number, e.g. ':8080'")
	}

	filter := loadFilter(cfg)

	db, closeDB, err := openStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("[server] %v", err)
	}
	defer closeDB()

	var logWriter api.LogWriter
	if cfg.KafkaAddr != "" && cfg.KafkaTopic != "" {
		kafkaWriter := &kafka.Writer{
			Addr:      kafka.TCP(cfg.KafkaAddr),
			Topic:     cfg.KafkaTopic,
			BatchSize: cfg.KafkaBatch,
		}
		defer kafkaWriter.Close()

		err := createTopic(kafkaWriter.Addr.String(), kafkaWriter.Topic)
		if err != nil {
			log.Warnf("[server] failed to create Kafka topic: %v", err)
		}
		logWriter = kafkaWriter
	} else {
		log.Warnf("[server] kafka was not configured, logs will not be sent to Kafka")
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.New(cfg.ServiceName, db, filter, logWriter).Router(),
	}

	go func() {
		log.Infof("[server] starting on %v", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}
}

func loadFilter(cfg config.Config) *sensitive.Filter {
	opts := []sensitive.Option{sensitive.WithReplacement(cfg.Replacement)}

	src, err := cfg.WordSource()
	if err != nil {
		log.Warnf("[server] %v, texts will not be filtered", err)
		return sensitive.New(nil, opts...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	filter := sensitive.Load(ctx, src, opts...)
	if filter.Status() == sensitive.StatusReady {
		log.Infof("[server] %d banned words loaded", filter.Words())
	}
	return filter
}

func openStorage(kind string) (storage.Storage, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch kind {
	case config.StoragePostgres:
		conf := postgres.ConfigFromEnv()
		if !conf.IsValid() {
			return nil, nil, fmt.Errorf("invalid postgres config: %s", conf)
		}
		db, err := postgres.New(ctx, conf.ConString())
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%w: %v", storage.ErrDBNotResponding, err)
		}
		log.Infof("[server] connected to postgres: %s", conf)
		return db, db.Close, nil

	case config.StorageMongo:
		conf, err := mongo.ConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		db, err := mongo.New(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close(context.Background())
			return nil, nil, fmt.Errorf("%w: %v", storage.ErrDBNotResponding, err)
		}
		log.Infof("[server] connected to mongo: %s", conf)
		return db, func() { db.Close(context.Background()) }, nil
	}

	log.Info("[server] running with in-memory storage")
	return memdb.New(), func() {}, nil
}

func createTopic(broker, topic string) error {
	conn, err := kafka.DialContext(context.Background(), "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
