package mongo

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"

	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultDBName = "community"

var ErrConfParamMissing = errors.New("configuration parameter missing")

type Config struct {
	Host     string
	Port     string
	DBName   string
	User     string
	Password string
}

// ConfigFromEnv reads the connection settings from MONGO_* variables.
// MONGO_HOST and MONGO_PORT are required, the database name defaults to
// "community". Credentials are used only when both are set.
func ConfigFromEnv() (Config, error) {
	conf := Config{
		Host:     os.Getenv("MONGO_HOST"),
		Port:     os.Getenv("MONGO_PORT"),
		DBName:   os.Getenv("MONGO_DB_NAME"),
		User:     os.Getenv("MONGO_USER"),
		Password: os.Getenv("MONGO_PASS"),
	}
	if conf.DBName == "" {
		conf.DBName = defaultDBName
	}

	switch {
	case conf.Host == "":
		return Config{}, fmt.Errorf("%w: MONGO_HOST", ErrConfParamMissing)
	case conf.Port == "":
		return Config{}, fmt.Errorf("%w: MONGO_PORT", ErrConfParamMissing)
	}

	return conf, nil
}

func (c Config) URI() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/",
	}
	if c.User != "" && c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

// String describes the connection without credentials.
func (c Config) String() string {
	return fmt.Sprintf("mongodb://%s/%s", net.JoinHostPort(c.Host, c.Port), c.DBName)
}

func (c Config) Options() *options.ClientOptions {
	return options.Client().ApplyURI(c.URI())
}
