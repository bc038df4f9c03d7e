// Package numeric implements the GCD/LCM arithmetic the hyperperiod
// manager builds on.
package numeric

import "log/slog"

// HyperperiodWarnCeilingUS is the sanity ceiling (one hour in
// microseconds) past which LCMMany logs a warning instead of failing.
// Exceeding it never aborts the computation: overflow detection past
// this point is the caller's responsibility.
const HyperperiodWarnCeilingUS uint64 = 3_600_000_000

// GCD returns the greatest common divisor of a and b using the
// Euclidean algorithm over unsigned 64-bit integers.
func GCD(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b. Zero absorbs: if
// either operand is zero the result is zero.
func LCM(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	g := GCD(a, b)
	return (a / g) * b
}

// LCMMany folds LCM left-to-right over xs. An empty slice returns 0.
// Logs a warning (via the provided logger, or the default logger if
// nil) when the running result exceeds HyperperiodWarnCeilingUS; the
// value is still returned.
func LCMMany(xs []uint64, logger *slog.Logger) uint64 {
	if len(xs) == 0 {
		return 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	result := xs[0]
	for _, x := range xs[1:] {
		result = LCM(result, x)
	}
	if result > HyperperiodWarnCeilingUS {
		logger.Warn("hyperperiod exceeds sanity ceiling",
			"hyperperiod_us", result,
			"ceiling_us", HyperperiodWarnCeilingUS)
	}
	return result
}
