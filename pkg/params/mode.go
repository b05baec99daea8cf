package params

import (
	"context"
	"fmt"
	"strings"
)

// FeatureMode selects where the top parameter layer comes from. Exactly one mode
// is active per build; see internal/buildmode.
type FeatureMode int

const (
	// ModeInlineDefaults uses only the compiled tables
	ModeInlineDefaults FeatureMode = iota + 1
	// ModeExternalConfig applies a layer from a file-backed store on top of the tables
	ModeExternalConfig
	// ModeUserInput applies user supplied values on top of the tables
	ModeUserInput
	// ModeOptimize sweeps declared ranges instead of producing a single set
	ModeOptimize
)

// String returns the mode name
func (m FeatureMode) String() string {
	switch m {
	case ModeInlineDefaults:
		return "inline"
	case ModeExternalConfig:
		return "config"
	case ModeUserInput:
		return "input"
	case ModeOptimize:
		return "optimize"
	default:
		return fmt.Sprintf("FeatureMode(%d)", int(m))
	}
}

// Valid reports whether m is one of the four modes
func (m FeatureMode) Valid() bool {
	return m >= ModeInlineDefaults && m <= ModeOptimize
}

// ParseFeatureMode parses a mode name
func ParseFeatureMode(s string) (FeatureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inline", "defaults", "inline_defaults":
		return ModeInlineDefaults, nil
	case "config", "external", "external_config":
		return ModeExternalConfig, nil
	case "input", "user_input":
		return ModeUserInput, nil
	case "optimize", "optimise":
		return ModeOptimize, nil
	}
	return 0, fmt.Errorf("unknown feature mode %q", s)
}

// OverrideProvider supplies the external layer in ExternalConfig mode. Implementations
// use the registry's field vocabulary and reject unknown names themselves.
type OverrideProvider interface {
	Load(ctx context.Context, kind StrategyKind, symbol string, tf Timeframe) (Layer, error)
}

// ProviderFunc adapts a function to OverrideProvider
type ProviderFunc func(ctx context.Context, kind StrategyKind, symbol string, tf Timeframe) (Layer, error)

// Load calls f
func (f ProviderFunc) Load(ctx context.Context, kind StrategyKind, symbol string, tf Timeframe) (Layer, error) {
	return f(ctx, kind, symbol, tf)
}
