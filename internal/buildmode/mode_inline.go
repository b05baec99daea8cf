//go:build stg_inline

package buildmode

import "github.com/ducminhle1904/ad-params/pkg/params"

const mode = params.ModeInlineDefaults
