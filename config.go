package apexText

import (
	"log/slog"
	"reflect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// NameConvention selects how declared Go field names are rendered as keys.
type NameConvention int

const (
	NameAsDeclared NameConvention = iota
	NameCamelCase
	NameLowerUnderscore
)

// MemberMatching selects how serialized keys are matched against members.
type MemberMatching int

const (
	// MatchExact requires a case-sensitive match.
	MatchExact MemberMatching = iota
	// MatchLenient also accepts keys that differ in case or in '_' and '-'
	// separators, so total_count populates TotalCount.
	MatchLenient
)

// DateEncoding selects the text form of time.Time values.
type DateEncoding int

const (
	DateISO8601    DateEncoding = iota // 2006-01-02T15:04:05.999999999Z07:00
	DateUnixMillis                     // 1136214245000
	DateWCF                            // /Date(1136214245000)/
)

// DefaultMaxDepth bounds container nesting on both read and write.
const DefaultMaxDepth = 64

// DefaultTypeAttr is the key carrying the type discriminator.
const DefaultTypeAttr = "__type"

// Config is the configuration a Codec compiles its type codecs against.
type Config struct {
	IncludeNullValues           bool
	OmitNullsInMaps             bool
	MaxDepth                    int
	NameConvention              NameConvention
	MemberMatching              MemberMatching
	AlwaysEmitTypeDiscriminator bool
	DateEncoding                DateEncoding
	TreatEnumAsInteger          bool
	StrictMode                  bool
	UseNumber                   bool
	TypeAttr                    string

	Logger        *slog.Logger
	MeterProvider metric.MeterProvider
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the configuration used by the JSON and JSV codecs.
func DefaultConfig() Config {
	return Config{
		MaxDepth: DefaultMaxDepth,
		TypeAttr: DefaultTypeAttr,
	}
}

// WithIncludeNullValues writes nil struct members as null instead of omitting them.
func WithIncludeNullValues(include bool) Option {
	return func(c *Config) { c.IncludeNullValues = include }
}

// WithOmitNullsInMaps drops map entries whose value is nil.
func WithOmitNullsInMaps(omit bool) Option {
	return func(c *Config) { c.OmitNullsInMaps = omit }
}

func WithMaxDepth(depth int) Option {
	return func(c *Config) {
		if depth > 0 {
			c.MaxDepth = depth
		}
	}
}

func WithNameConvention(nc NameConvention) Option {
	return func(c *Config) { c.NameConvention = nc }
}

func WithMemberMatching(m MemberMatching) Option {
	return func(c *Config) { c.MemberMatching = m }
}

// WithAlwaysEmitTypeDiscriminator writes the discriminator for every struct,
// not only for values held in interface slots.
func WithAlwaysEmitTypeDiscriminator(always bool) Option {
	return func(c *Config) { c.AlwaysEmitTypeDiscriminator = always }
}

func WithDateEncoding(enc DateEncoding) Option {
	return func(c *Config) { c.DateEncoding = enc }
}

// WithEnumAsInteger writes integer-kinded text marshalers as their numeric value.
func WithEnumAsInteger(asInt bool) Option {
	return func(c *Config) { c.TreatEnumAsInteger = asInt }
}

// WithStrictMode turns schema mismatches and unresolvable discriminators into errors.
func WithStrictMode(strict bool) Option {
	return func(c *Config) { c.StrictMode = strict }
}

// WithUseNumber makes generic parses produce Number instead of float64.
func WithUseNumber(use bool) Option {
	return func(c *Config) { c.UseNumber = use }
}

func WithTypeAttr(attr string) Option {
	return func(c *Config) {
		if attr != "" {
			c.TypeAttr = attr
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) { c.MeterProvider = mp }
}

// settings is the immutable configuration a snapshot's codecs were built
// against. Changing anything produces a new settings value.
type settings struct {
	cfg     Config
	log     *slog.Logger
	metrics *codecMetrics
	hooks   map[reflect.Type]*rawHooks
}

func newSettings(cfg Config, format string, hooks map[reflect.Type]*rawHooks) *settings {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.TypeAttr == "" {
		cfg.TypeAttr = DefaultTypeAttr
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return &settings{
		cfg:     cfg,
		log:     log.With("format", format),
		metrics: newCodecMetrics(mp, format),
		hooks:   hooks,
	}
}

// with returns a copy of s with opts applied.
func (s *settings) with(format string, opts ...Option) *settings {
	cfg := s.cfg
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == s.cfg.Logger && cfg.MeterProvider == s.cfg.MeterProvider {
		n := *s
		n.cfg = cfg
		return &n
	}
	return newSettings(cfg, format, s.hooks)
}

// withHooks returns a copy of s whose hook table is replaced.
func (s *settings) withHooks(hooks map[reflect.Type]*rawHooks) *settings {
	n := *s
	n.hooks = hooks
	return &n
}
