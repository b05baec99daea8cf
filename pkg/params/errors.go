package params

import perrors "github.com/ducminhle1904/ad-params/internal/errors"

// Error sentinels for errors.Is
var (
	ErrUnknownField      = perrors.ErrUnknownField
	ErrDuplicateOverride = perrors.ErrDuplicateOverride
	ErrInvalidValue      = perrors.ErrInvalidValue
	ErrMissingSource     = perrors.ErrMissingSource
	ErrModeMismatch      = perrors.ErrModeMismatch
)
