//go:build !stg_debug

package buildmode

// Debug forces debug logging
const Debug = false
