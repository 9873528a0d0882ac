package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps file, env and decode failures.
	ErrLoadConfig = errors.New("load config failed")
	// ErrInvalidOverride marks an impact_overrides entry the table rejected.
	ErrInvalidOverride = errors.New("invalid impact override")
)
