package validation

import (
	"errors"
	"fmt"
	"strings"

	"chatcore/pkg/models"
)

// Rules bound outgoing drafts before they enter the message store. This
// is input hygiene at the boundary; it is distinct from the store's
// no-op policy for invalid mutations.
type Rules struct {
	MaxTextLen int
	MediaKinds map[models.MediaKind]struct{}
}

var rules = defaultRules()

func defaultRules() Rules {
	return Rules{
		MaxTextLen: 4096,
		MediaKinds: map[models.MediaKind]struct{}{
			models.MediaImage: {},
			models.MediaVideo: {},
			models.MediaAudio: {},
		},
	}
}

// SetRules installs the active rule set. Zero or nil fields fall back to
// defaults.
func SetRules(r Rules) {
	def := defaultRules()
	if r.MaxTextLen <= 0 {
		r.MaxTextLen = def.MaxTextLen
	}
	if len(r.MediaKinds) == 0 {
		r.MediaKinds = def.MediaKinds
	}
	rules = r
}

// ErrEmptyDraft is returned for drafts with neither text nor media.
var ErrEmptyDraft = errors.New("draft requires text or media")

// ValidateDraft checks an outgoing draft against the active rules.
func ValidateDraft(text string, media *models.Media) error {
	var errs []string
	if strings.TrimSpace(text) == "" && media == nil {
		return ErrEmptyDraft
	}
	if len(text) > rules.MaxTextLen {
		errs = append(errs, fmt.Sprintf("text exceeds %d bytes", rules.MaxTextLen))
	}
	if media != nil {
		if media.URL == "" {
			errs = append(errs, "media url is required")
		}
		if _, ok := rules.MediaKinds[media.Kind]; !ok {
			errs = append(errs, fmt.Sprintf("unsupported media kind: %s", media.Kind))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
