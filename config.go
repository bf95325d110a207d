package matchpipe

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultParallelism            = 5
	defaultDedupTimeThreshold     = 2.0
	defaultDedupBoostPerDetection = 0.1
	defaultMatcherTolerance       = 2.0
	defaultMaxRetries             = 3
	defaultInitialDelayMs         = 2000
	defaultMaxDelayMs             = 30000
	defaultTimeoutMs              = 180000
)

// WindowingConfig configures the window generator.
type WindowingConfig struct {
	FPSBySegment       map[SegmentType]int `yaml:"fpsBySegment"`
	DefaultDurationSec float64             `yaml:"defaultDurationSec"`
	OverlapSec         float64             `yaml:"overlapSec"`
	Parallelism        int                 `yaml:"parallelism"`
	SkipStoppages      bool                `yaml:"skipStoppages"`
}

// yamlWindowing mirrors WindowingConfig but with a pointer SkipStoppages so
// LoadConfig can tell "not present in the override file" (nil) apart from
// "explicitly set to false", which a plain bool can't represent.
type yamlWindowing struct {
	FPSBySegment       map[SegmentType]int `yaml:"fpsBySegment"`
	DefaultDurationSec float64             `yaml:"defaultDurationSec"`
	OverlapSec         float64             `yaml:"overlapSec"`
	Parallelism        int                 `yaml:"parallelism"`
	SkipStoppages      *bool               `yaml:"skipStoppages"`
}

// yamlConfig is the shape LoadConfig unmarshals override files into.
type yamlConfig struct {
	Windowing     yamlWindowing       `yaml:"windowing"`
	Dedup         DedupConfig         `yaml:"dedup"`
	Matcher       MatcherConfig       `yaml:"matcher"`
	Retry         RetryConfig         `yaml:"retry"`
	DynamicWindow DynamicWindowConfig `yaml:"dynamicWindow"`
}

// DedupConfig configures the deduplicator.
type DedupConfig struct {
	TimeThreshold               float64 `yaml:"timeThreshold"`
	ConfidenceBoostPerDetection float64 `yaml:"confidenceBoostPerDetection"`
}

// MatcherConfig configures the clip-event matcher.
type MatcherConfig struct {
	Tolerance float64 `yaml:"tolerance"`
}

// RetryConfig configures the model-call driver's retry/backoff.
type RetryConfig struct {
	MaxRetries     int `yaml:"maxRetries"`
	InitialDelayMs int `yaml:"initialDelayMs"`
	MaxDelayMs     int `yaml:"maxDelayMs"`
	TimeoutMs      int `yaml:"timeoutMs"`
}

// InitialDelay returns the retry's base backoff as a time.Duration.
func (r RetryConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelayMs) * time.Millisecond
}

// MaxDelay returns the retry's backoff ceiling as a time.Duration.
func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMs) * time.Millisecond
}

// Timeout returns the per-call timeout as a time.Duration.
func (r RetryConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// Config bundles every recognized configuration knob.
type Config struct {
	Windowing     WindowingConfig     `yaml:"windowing"`
	Dedup         DedupConfig         `yaml:"dedup"`
	Matcher       MatcherConfig       `yaml:"matcher"`
	Retry         RetryConfig         `yaml:"retry"`
	DynamicWindow DynamicWindowConfig `yaml:"dynamicWindow"`
}

// DefaultConfig returns the documented defaults for every knob.
func DefaultConfig() Config {
	return Config{
		Windowing: WindowingConfig{
			DefaultDurationSec: defaultWindowSize,
			OverlapSec:         defaultWindowOverlap,
			FPSBySegment:       cloneFPSMap(defaultFPSBySegment),
			Parallelism:        defaultParallelism,
			SkipStoppages:      true,
		},
		Dedup: DedupConfig{
			TimeThreshold:               defaultDedupTimeThreshold,
			ConfidenceBoostPerDetection: defaultDedupBoostPerDetection,
		},
		Matcher: MatcherConfig{
			Tolerance: defaultMatcherTolerance,
		},
		Retry: RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialDelayMs: defaultInitialDelayMs,
			MaxDelayMs:     defaultMaxDelayMs,
			TimeoutMs:      defaultTimeoutMs,
		},
	}
}

// LoadConfig reads a YAML override file and applies it on top of
// DefaultConfig. Zero-value fields in the override file do not clobber the
// defaults they are merged into, so a file overriding only `dedup.timeThreshold`
// leaves every other knob at its documented default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("matchpipe: read config %q: %w", path, err)
	}

	var override yamlConfig
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return cfg, fmt.Errorf("matchpipe: parse config %q: %w", path, err)
	}

	mergeWindowing(&cfg.Windowing, override.Windowing)
	mergeDedup(&cfg.Dedup, override.Dedup)
	mergeMatcher(&cfg.Matcher, override.Matcher)
	mergeRetry(&cfg.Retry, override.Retry)
	mergeDynamicWindow(&cfg.DynamicWindow, override.DynamicWindow)

	return cfg, nil
}

func mergeWindowing(dst *WindowingConfig, src yamlWindowing) {
	if src.DefaultDurationSec != 0 {
		dst.DefaultDurationSec = src.DefaultDurationSec
	}
	if src.OverlapSec != 0 {
		dst.OverlapSec = src.OverlapSec
	}
	if src.Parallelism != 0 {
		dst.Parallelism = src.Parallelism
	}
	if src.FPSBySegment != nil {
		dst.FPSBySegment = src.FPSBySegment
	}
	if src.SkipStoppages != nil {
		dst.SkipStoppages = *src.SkipStoppages
	}
}

func mergeDedup(dst *DedupConfig, src DedupConfig) {
	if src.TimeThreshold != 0 {
		dst.TimeThreshold = src.TimeThreshold
	}
	if src.ConfidenceBoostPerDetection != 0 {
		dst.ConfidenceBoostPerDetection = src.ConfidenceBoostPerDetection
	}
}

func mergeMatcher(dst *MatcherConfig, src MatcherConfig) {
	if src.Tolerance != 0 {
		dst.Tolerance = src.Tolerance
	}
}

func mergeRetry(dst *RetryConfig, src RetryConfig) {
	if src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
	}
	if src.InitialDelayMs != 0 {
		dst.InitialDelayMs = src.InitialDelayMs
	}
	if src.MaxDelayMs != 0 {
		dst.MaxDelayMs = src.MaxDelayMs
	}
	if src.TimeoutMs != 0 {
		dst.TimeoutMs = src.TimeoutMs
	}
}

func mergeDynamicWindow(dst *DynamicWindowConfig, src DynamicWindowConfig) {
	if src.DefaultBefore != 0 {
		dst.DefaultBefore = src.DefaultBefore
	}
	if src.DefaultAfter != 0 {
		dst.DefaultAfter = src.DefaultAfter
	}
}

func cloneFPSMap(m map[SegmentType]int) map[SegmentType]int {
	out := make(map[SegmentType]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
