package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Identity   IdentityConfig   `yaml:"identity"`
	Simulator  SimulatorConfig  `yaml:"simulator"`
	Validation ValidationConfig `yaml:"validation"`
	Retention  RetentionConfig  `yaml:"retention"`
}

// ServerConfig holds the diagnostics HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// StorageConfig holds the pebble snapshot settings.
type StorageConfig struct {
	DBPath    string    `yaml:"db_path"`
	CacheSize SizeBytes `yaml:"cache_size"`
	AuditDir  string    `yaml:"audit_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// IdentityConfig is the inbound identity/conversation context: the local
// participant id and the known conversation list (id -> peer identity).
type IdentityConfig struct {
	ParticipantID string             `yaml:"participant_id"`
	Conversations []ConversationSeed `yaml:"conversations"`
}

// ConversationSeed declares one conversation the engine may materialize.
type ConversationSeed struct {
	ID   string `yaml:"id"`
	Peer string `yaml:"peer"`
}

// SimulatorConfig tunes the delivery simulator's timings and the
// simulated-peer reply pipeline.
type SimulatorConfig struct {
	SentAfter        Duration `yaml:"sent_after"`
	DeliveredAfter   Duration `yaml:"delivered_after"`
	TypingMin        Duration `yaml:"typing_min"`
	TypingMax        Duration `yaml:"typing_max"`
	ReplyMin         Duration `yaml:"reply_min"`
	ReplyMax         Duration `yaml:"reply_max"`
	ReplyProbability *float64 `yaml:"reply_probability"`
	// ReplyRPS/ReplyBurst cap simulated reply injection per conversation;
	// zero RPS disables the limiter.
	ReplyRPS   float64 `yaml:"reply_rps"`
	ReplyBurst int     `yaml:"reply_burst"`
}

// ValidationConfig bounds outgoing drafts before they enter the store.
type ValidationConfig struct {
	MaxTextLen int      `yaml:"max_text_len"`
	MediaKinds []string `yaml:"media_kinds"`
}

// RetentionConfig holds configuration for the version-row compaction
// runner. The live message sequence is never pruned.
type RetentionConfig struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	Period  Duration `yaml:"period"`
	DryRun  bool     `yaml:"dry_run"`
}

// Addr returns host:port for the diagnostics HTTP listener.
func (c *Config) Addr() string {
	addr := c.Server.Address
	port := c.Server.Port
	if addr == "" && port == 0 {
		return ""
	}
	if port == 0 {
		return addr
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly
// strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing
// from strings like "500ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
