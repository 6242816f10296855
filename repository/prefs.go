package repository

import "context"

// Preference keys used by the storefront UI.
const (
	PrefTheme    = "theme"
	PrefLanguage = "language"
)

// PreferenceRepository stores process-wide UI preferences. Unlike the
// cart cache these survive logout.
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}
