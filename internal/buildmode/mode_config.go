//go:build stg_config

package buildmode

import "github.com/ducminhle1904/ad-params/pkg/params"

const mode = params.ModeExternalConfig
