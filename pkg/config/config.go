// Package config reads the TOML configuration of the community server.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"community/pkg/sensitive"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

var (
	ErrUnknownStorage = errors.New("unknown storage backend")
	ErrNoWordSource   = errors.New("no word list configured")
)

type Config struct {
	ServiceName string `toml:"serviceName"`
	HTTPAddr    string `toml:"httpAddr"`
	LogLevel    string `toml:"logLevel"`
	Storage     string `toml:"storage"`

	WordsPath   string `toml:"wordsPath"`
	WordsURL    string `toml:"wordsURL"`
	Replacement string `toml:"replacement"`

	KafkaAddr  string `toml:"kafkaAddr"`
	KafkaTopic string `toml:"kafkaTopic"`
	KafkaBatch int    `toml:"kafkaBatch"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		ServiceName: "community",
		HTTPAddr:    ":8055",
		LogLevel:    "info",
		Storage:     StorageMemory,
		Replacement: sensitive.DefaultReplacement,
		KafkaBatch:  1,
	}
}

// Load decodes the TOML file at path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warnf("[config] unknown keys in %s: %v", path, undecoded)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres, StorageMongo:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage)
	}
	return nil
}

// WordSource picks where the banned words come from. A URL wins over a path.
func (c Config) WordSource() (sensitive.WordSource, error) {
	switch {
	case c.WordsURL != "":
		return sensitive.HTTPSource{URL: c.WordsURL}, nil
	case c.WordsPath != "":
		return sensitive.FileSource{Path: c.WordsPath}, nil
	}
	return nil, ErrNoWordSource
}

// SetLogLevel applies level to the standard logrus logger. Unknown levels
// keep the current one.
func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warnf("[config] unknown log level %q", level)
	}
}
