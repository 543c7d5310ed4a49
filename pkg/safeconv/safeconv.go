// Package safeconv provides safe integer type conversion functions that panic on overflow.
package safeconv

import "math"

// MaxInt is the maximum value for int type (platform-dependent).
const MaxInt = int(^uint(0) >> 1)

// MaxUint is the maximum value for uint type (platform-dependent).
const MaxUint = ^uint(0)

// MustUint64ToUint converts uint64 to uint, panics on overflow.
// Use only when overflow is logically impossible.
func MustUint64ToUint(v uint64) uint {
	if v > uint64(MaxUint) {
		panic("safeconv: uint64 to uint overflow")
	}

	return uint(v)
}

// MustUint64ToInt64 converts uint64 to int64, panics on overflow.
// Use only when overflow is logically impossible.
func MustUint64ToInt64(v uint64) int64 {
	if v > uint64(math.MaxInt64) {
		panic("safeconv: uint64 to int64 overflow")
	}

	return int64(v)
}

// MustIntToUint64 converts int to uint64, panics if negative.
// Use only when negative values are logically impossible.
func MustIntToUint64(v int) uint64 {
	if v < 0 {
		panic("safeconv: negative int to uint64 conversion")
	}

	return uint64(v)
}
