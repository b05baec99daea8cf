//go:build stg_optimize

package buildmode

import "github.com/ducminhle1904/ad-params/pkg/params"

const mode = params.ModeOptimize
