package stress

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog keys, one per recommendation a rule can emit.
const (
	KeySeverityLow             = "severity.low"
	KeySeverityModerate        = "severity.moderate"
	KeySeverityHigh            = "severity.high"
	KeySeverityCriticalSupport = "severity.critical.support"
	KeySeverityCriticalCalm    = "severity.critical.calm"
	KeyPeerPressure            = "peer_pressure"
	KeyHomePressure            = "home_pressure"
	KeyBadHabits               = "bad_habits"
	KeyCopingStrategy          = "coping_strategy"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

var requiredKeys = []string{
	KeySeverityLow,
	KeySeverityModerate,
	KeySeverityHigh,
	KeySeverityCriticalSupport,
	KeySeverityCriticalCalm,
	KeyPeerPressure,
	KeyHomePressure,
	KeyBadHabits,
	KeyCopingStrategy,
}

//go:embed catalog/*.yaml
var catalogFiles embed.FS

// ErrUnknownLocale is returned when no embedded catalog exists for a locale.
var ErrUnknownLocale = errors.New("unknown recommendation locale")

// Entry is the text behind one catalog key.
type Entry struct {
	Guidance string `yaml:"guidance"`
	Context  string `yaml:"context"`
}

// Catalog maps rule keys to recommendation text for a single locale.
type Catalog struct {
	Locale  string           `yaml:"locale"`
	Entries map[string]Entry `yaml:"entries"`
}

// LoadCatalog returns the embedded catalog for locale.
func LoadCatalog(locale string) (*Catalog, error) {
	locale = normalize(locale)
	if locale == "" {
		locale = DefaultLocale
	}
	data, err := catalogFiles.ReadFile("catalog/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	return ParseCatalog(data)
}

// Locales lists the embedded catalog locales.
func Locales() []string {
	entries, err := catalogFiles.ReadDir("catalog")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// ParseCatalog decodes a YAML catalog and checks every rule key has guidance.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(c.Entries[key].Guidance) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("catalog %q missing guidance for: %s", c.Locale, strings.Join(missing, ", "))
	}
	return &c, nil
}

// Keys returns the catalog keys in rule declaration order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), requiredKeys...)
}

// Format controls whether recommendation context is emitted.
type Format string

const (
	FormatPlain     Format = "plain"
	FormatAnnotated Format = "annotated"
)

// ParseFormat maps a config value onto a Format. Unknown values fall back to annotated.
func ParseFormat(raw string) Format {
	switch normalize(raw) {
	case "plain", "text":
		return FormatPlain
	default:
		return FormatAnnotated
	}
}

func (c *Catalog) recommendation(key string, format Format) Recommendation {
	e := c.Entries[key]
	rec := Recommendation{ID: key, Guidance: e.Guidance}
	if format == FormatAnnotated {
		rec.Context = e.Context
	}
	return rec
}
