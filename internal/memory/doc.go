// Package memory applies a soft heap limit and gives the thumbnail scanner
// backpressure when the heap approaches it.
//
// ConfigureFromEnv turns MEMORY_LIMIT and MEMORY_RATIO into a GOMEMLIMIT.
// A Monitor samples the heap; once usage crosses CriticalWaterMark, Wait
// blocks scan workers before they start a new decode and releases them when
// usage falls under HighWaterMark.
package memory
