// Package logging provides the leveled logger used across prompt-sorter.
//
// Levels, from most to least verbose:
//   - DEBUG: per-file decode and extraction failures
//   - INFO: scan lifecycle, cache resizes, file operation summaries
//   - WARN: skipped directories, fallbacks, retries
//   - ERROR: scan failures and unusable configuration
//   - FATAL: startup errors that terminate the process
//
// The initial level comes from DEBUG (1/true/yes/on) or LOG_LEVEL and can be
// changed at runtime with SetLevel.
package logging
