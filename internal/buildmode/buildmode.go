// Package buildmode exposes the parameter source compiled into the binary.
//
// The default build uses user input. Build with exactly one of the tags
// stg_config, stg_optimize or stg_inline to select another source; combining
// them fails to compile. The stg_debug tag enables debug logging.
package buildmode

import "github.com/ducminhle1904/ad-params/pkg/params"

// Mode returns the compiled feature mode
func Mode() params.FeatureMode { return mode }
