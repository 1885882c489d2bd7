package config

import "time"

// Default constants for application configuration.
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultHeadless    = true
	DefaultTargetCount = 10
	DefaultOutputDir   = "output"
	DefaultFormat      = "csv"
	DefaultResultsWait = 20 * time.Second
	DefaultMaxReviews  = 10
)
