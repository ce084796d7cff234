// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of API credentials (keys, tokens, secrets)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (JWTs, bearer tokens, keys)
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of an API key in logs that may be shared or stored. Paper
// identifiers and other crawl attributes pass through untouched.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("request sent",
//	    "x-api-key", apiKey,  // Will be sanitized to "***REDACTED***"
//	    "paper", "649def34f8be52c8b66281af98ae884c09aef38b",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
