package app

import (
	"fmt"
	"strings"

	"chatcore/pkg/config"
	"chatcore/pkg/models"
	"chatcore/pkg/validation"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(cfg *config.Config) error {
	if cfg.Storage.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, CHATCORE_DB_PATH env, or storage.db_path in config")
	}
	if cfg.Identity.ParticipantID == "" {
		return fmt.Errorf("identity.participant_id is empty: set CHATCORE_PARTICIPANT_ID env or identity.participant_id in config")
	}
	for i, seed := range cfg.Identity.Conversations {
		if seed.ID == "" {
			return fmt.Errorf("identity.conversations[%d]: id is empty", i)
		}
		if strings.ContainsRune(seed.ID, ':') {
			return fmt.Errorf("identity.conversations[%d] (%s): id must not contain ':'", i, seed.ID)
		}
		if seed.Peer == "" {
			return fmt.Errorf("identity.conversations[%d] (%s): peer is empty", i, seed.ID)
		}
	}
	if p := cfg.Simulator.ReplyProbability; p != nil && (*p < 0 || *p > 1) {
		return fmt.Errorf("simulator.reply_probability %v outside [0,1]", *p)
	}
	for _, k := range cfg.Validation.MediaKinds {
		switch models.MediaKind(k) {
		case models.MediaImage, models.MediaVideo, models.MediaAudio:
		default:
			return fmt.Errorf("validation.media_kinds: unknown kind %q", k)
		}
	}
	return nil
}

// initValidation builds draft validation rules from config and sets them
// globally.
func initValidation(cfg *config.Config) {
	vr := validation.Rules{MaxTextLen: cfg.Validation.MaxTextLen}
	if len(cfg.Validation.MediaKinds) > 0 {
		vr.MediaKinds = make(map[models.MediaKind]struct{}, len(cfg.Validation.MediaKinds))
		for _, k := range cfg.Validation.MediaKinds {
			vr.MediaKinds[models.MediaKind(k)] = struct{}{}
		}
	}
	validation.SetRules(vr)
}
