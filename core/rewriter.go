package core

import (
	"context"
	"fmt"
	"replicate/models"
	"strings"
)

// Decision is the outcome of rewriting one request URL.
type Decision struct {
	Original string           `json:"original"`
	Redirect string           `json:"redirect"`
	Rule     models.MatchRule `json:"rule"`
}

// Changed reports whether the request must go somewhere else.
func (d Decision) Changed() bool {
	return d.Original != d.Redirect
}

// RewriteURL applies the redirect rules to rawURL. The first matching prefix
// wins: the sync API base, then the publish base. Only the prefix is replaced,
// everything after it is kept byte for byte. An empty or blank replacement
// leaves the URL untouched.
func RewriteURL(rawURL string, s models.ReplicateSettings, mode models.FieldMode) (string, models.MatchRule) {
	switch {
	case strings.HasPrefix(rawURL, models.DefaultSyncBaseURL):
		return replacePrefix(rawURL, models.DefaultSyncBaseURL, s.SyncBaseURL), models.RuleSync
	case strings.HasPrefix(rawURL, models.DefaultPublishBaseURL):
		replacement := s.SyncBaseURL
		if mode == models.FieldModeSplit {
			replacement = s.PublishBaseURL
		}
		return replacePrefix(rawURL, models.DefaultPublishBaseURL, replacement), models.RulePublish
	}
	return rawURL, models.RuleNone
}

func replacePrefix(rawURL, prefix, replacement string) string {
	replacement = strings.TrimSpace(replacement)
	if replacement == "" {
		return rawURL
	}
	return replacement + rawURL[len(prefix):]
}

// Rewriter reads the current settings on every call, so edits apply to the
// next request without a restart.
type Rewriter struct {
	store SettingsStore
	mode  models.FieldMode
}

func NewRewriter(store SettingsStore, mode models.FieldMode) *Rewriter {
	return &Rewriter{store: store, mode: mode}
}

func (rw *Rewriter) Mode() models.FieldMode {
	return rw.mode
}

// Rewrite computes the destination for rawURL. If the settings cannot be
// loaded the URL is returned unchanged together with the error.
func (rw *Rewriter) Rewrite(ctx context.Context, rawURL string) (Decision, error) {
	settings, err := rw.store.Load(ctx)
	if err != nil {
		_, rule := RewriteURL(rawURL, models.ReplicateSettings{}, rw.mode)
		return Decision{Original: rawURL, Redirect: rawURL, Rule: rule}, fmt.Errorf("loading settings for %s: %w", rawURL, err)
	}
	redirect, rule := RewriteURL(rawURL, settings, rw.mode)
	return Decision{Original: rawURL, Redirect: redirect, Rule: rule}, nil
}
