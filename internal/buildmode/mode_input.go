//go:build !stg_config && !stg_optimize && !stg_inline

package buildmode

import "github.com/ducminhle1904/ad-params/pkg/params"

const mode = params.ModeUserInput
