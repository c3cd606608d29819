package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath string `env:"BADGER_FILEPATH"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH"`

	PageSize       int           `env:"PAGE_SIZE,default=20"`
	LoadMoreDelay  time.Duration `env:"LOAD_MORE_DELAY,default=500ms"`
	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE,default=300ms"`

	ReplyMinDelay   time.Duration `env:"REPLY_MIN_DELAY,default=1500ms"`
	ReplyMaxDelay   time.Duration `env:"REPLY_MAX_DELAY,default=3500ms"`
	ReplyBufferSize int           `env:"REPLY_BUFFER_SIZE,default=16"`

	OTPCode       string        `env:"OTP_CODE,default=123456"`
	OTPDelay      time.Duration `env:"OTP_DELAY,default=1500ms"`
	MaxImageBytes int           `env:"MAX_IMAGE_BYTES,default=5242880"`

	// Messages are only censored when words are configured or the embedded lists are enabled.
	CensoredWords      string `env:"CENSORED_WORDS"`
	CensorBuiltinLists bool   `env:"CENSOR_BUILTIN_LISTS,default=false"`
	CensorCharacter    string `env:"CENSOR_CHARACTER,default=*"`

	// Empty falls back to the public restcountries endpoint.
	CountriesURL     string        `env:"COUNTRIES_URL"`
	CountriesTimeout time.Duration `env:"COUNTRIES_TIMEOUT,default=10s"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if config.PageSize <= 0 {
		return Config{}, fmt.Errorf("PAGE_SIZE must be positive, got %d", config.PageSize)
	}
	if config.ReplyBufferSize <= 0 {
		return Config{}, fmt.Errorf("REPLY_BUFFER_SIZE must be positive, got %d", config.ReplyBufferSize)
	}
	return config, nil
}

// Blocklist splits CENSORED_WORDS on commas.
func (c Config) Blocklist() []string {
	var words []string
	for _, word := range strings.Split(c.CensoredWords, ",") {
		if word = strings.TrimSpace(word); word != "" {
			words = append(words, word)
		}
	}
	return words
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CENSOR_CHARACTER must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
