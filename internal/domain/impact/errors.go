package impact

import "errors"

// Sentinel kinds for impact table errors.
var (
	ErrInvalidProfile = errors.New("invalid impact profile")
	ErrUnknownMetric  = errors.New("unknown metric type")
)
