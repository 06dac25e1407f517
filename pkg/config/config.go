package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// ParseCommandFlags parses command-line flags and returns them as a Flags
// struct.
func ParseCommandFlags() Flags {
	addrPtr := flag.String("addr", ":8321", "diagnostics HTTP listen address")
	dbPtr := flag.String("db", "./.chatcore", "pebble snapshot path")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}
}

// Load reads the YAML config file at path. A missing file yields an empty
// config and no error so flag/env-only startup works.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overlays CHATCORE_* environment variables onto cfg. Env wins
// over file values; explicit flags win over both (handled by the caller).
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("CHATCORE_ADDR"); v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CHATCORE_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("CHATCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHATCORE_PARTICIPANT_ID"); v != "" {
		cfg.Identity.ParticipantID = v
	}
}

// Simulator timing defaults mirror the behavioral contract: sending->sent
// at 500ms, sent->delivered at 1500ms, typing after [3s,6s), reply a
// further [2s,4s) later, with a 50% reply probability.
// ShutdownTimeout bounds graceful HTTP shutdown at exit.
const ShutdownTimeout = 5 * time.Second

const (
	DefaultSentAfter        = 500 * time.Millisecond
	DefaultDeliveredAfter   = 1500 * time.Millisecond
	DefaultTypingMin        = 3 * time.Second
	DefaultTypingMax        = 6 * time.Second
	DefaultReplyMin         = 2 * time.Second
	DefaultReplyMax         = 4 * time.Second
	DefaultReplyProbability = 0.5
)

// Normalize fills zero simulator fields with defaults and repairs
// inverted ranges so the scheduler never sees a negative window.
func (s *SimulatorConfig) Normalize() {
	if s.SentAfter <= 0 {
		s.SentAfter = Duration(DefaultSentAfter)
	}
	if s.DeliveredAfter <= 0 {
		s.DeliveredAfter = Duration(DefaultDeliveredAfter)
	}
	if s.DeliveredAfter < s.SentAfter {
		s.DeliveredAfter = s.SentAfter
	}
	if s.TypingMin <= 0 {
		s.TypingMin = Duration(DefaultTypingMin)
	}
	if s.TypingMax < s.TypingMin {
		s.TypingMax = Duration(DefaultTypingMax)
	}
	if s.TypingMax < s.TypingMin {
		s.TypingMax = s.TypingMin
	}
	if s.ReplyMin <= 0 {
		s.ReplyMin = Duration(DefaultReplyMin)
	}
	if s.ReplyMax < s.ReplyMin {
		s.ReplyMax = Duration(DefaultReplyMax)
	}
	if s.ReplyMax < s.ReplyMin {
		s.ReplyMax = s.ReplyMin
	}
	if s.ReplyProbability == nil {
		p := DefaultReplyProbability
		s.ReplyProbability = &p
	}
}

// Probability returns the normalized reply probability clamped to [0,1].
func (s *SimulatorConfig) Probability() float64 {
	if s.ReplyProbability == nil {
		return DefaultReplyProbability
	}
	p := *s.ReplyProbability
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
