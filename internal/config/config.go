package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Chat configures the front-end Lambda.
type Chat struct {
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	LexBotID           string `envconfig:"LEX_BOT_ID" required:"true"`
	LexBotAliasID      string `envconfig:"LEX_BOT_ALIAS_ID" required:"true"`
	LexLocaleID        string `envconfig:"LEX_LOCALE_ID" default:"en_US"`
	MaxUtteranceLength int    `envconfig:"MAX_UTTERANCE_LENGTH" default:"300"`
}

// Dialogue configures the Lex code hook Lambda.
type Dialogue struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	PreferencesTable string `envconfig:"PREFERENCES_TABLE" required:"true"`
	QueueURL         string `envconfig:"QUEUE_URL" required:"true"`
}

// Worker configures the scheduled fulfillment Lambda.
type Worker struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	PreferencesTable string `envconfig:"PREFERENCES_TABLE" required:"true"`
	RestaurantsTable string `envconfig:"RESTAURANTS_TABLE" required:"true"`
	RestaurantKey    string `envconfig:"RESTAURANT_KEY" default:"BusinessID"`
	QueueURL         string `envconfig:"QUEUE_URL" required:"true"`
	SearchEndpoint   string `envconfig:"SEARCH_ENDPOINT" required:"true"`
	SearchIndex      string `envconfig:"SEARCH_INDEX" default:"restaurants"`
	SearchLimit      int    `envconfig:"SEARCH_LIMIT" default:"3"`
	MinResults       int    `envconfig:"MIN_RESULTS" default:"3"`
	BatchSize        int    `envconfig:"BATCH_SIZE" default:"10"`
	ParamPrefix      string `envconfig:"PARAM_PREFIX" required:"true"`
}

// SenderParameter is the SSM name holding the verified From address.
func (w Worker) SenderParameter() string {
	return strings.TrimRight(strings.TrimSpace(w.ParamPrefix), "/") + "/sender_email"
}

// Load reads T from the environment.
func Load[T any]() (*T, error) {
	var conf T
	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &conf, nil
}

// NewLogger returns a JSON slog logger at level. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
