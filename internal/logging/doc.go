// Package logging provides structured logging utilities for the calimport application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Process-wide handler setup (text or JSON)
//   - Request-scoped loggers carrying chi's request id
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//   - Logger interface used by the import pipeline
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "import_schedule")
//	logger.Info("import finished",
//	    logging.Schedule(3),
//	    logging.Imported(42))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("user signed in",
//	    logging.UserHash(email))
//
// # Security Considerations
//
//   - User emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
