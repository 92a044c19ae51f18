// Package rollout provides deterministic stable-identifier bucketing
// for feature flag rampups. It replaces consistent-hashing mod-100
// buckets with a SHA-256-derived bucket in [0, 10000), giving
// basis-point resolution on the rampup percentage, while preserving
// the guarantees bucketing schemes like this exist for:
//   - Same (salt, feature key, stable id) always yields the same bucket
//   - Even distribution across buckets
//   - Per-flag independence: feature key is part of the hash input, so
//     admission to one flag's ramp says nothing about another's
//   - Monotone growth: raising the rampup percentage only adds admits
//   - Salt-controlled resample: changing salt reshuffles only that flag
package rollout

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/amichne/konditional/internal/evalctx"
)

// ErrInvalidRampUp is returned when a rampup percentage is not finite
// or not in [0, 100].
var ErrInvalidRampUp = errors.New("rollout: rampup percent must be finite and within [0, 100]")

// BucketModulus is the number of buckets a stable identifier is hashed
// into; fixed at 10,000 per the bucketing contract (not the 1,000
// figure that appears in some architecture diagrams).
const BucketModulus = 10000

// Bucket deterministically maps (salt, featureKey, stableID) to an
// integer in [0, BucketModulus). The hash input is exactly
// "salt:featureKey:stableIDHex"; the bucket is the first four bytes of
// its SHA-256 digest, read big-endian as an unsigned 32-bit integer,
// taken modulo BucketModulus.
func Bucket(salt, featureKey string, stableID evalctx.StableID) uint32 {
	input := salt + ":" + featureKey + ":" + string(stableID)
	sum := sha256.Sum256([]byte(input))
	prefix := binary.BigEndian.Uint32(sum[0:4])
	return prefix % BucketModulus
}

// Threshold converts a rampup percentage into a basis-points admission
// threshold in [0, BucketModulus], rounding to the nearest integer and
// clamping into range.
func Threshold(rampUpPercent float64) (int, error) {
	if rampUpPercent != rampUpPercent || rampUpPercent < 0 || rampUpPercent > 100 {
		return 0, ErrInvalidRampUp
	}
	basisPoints := int(rampUpPercent*100 + 0.5)
	if basisPoints < 0 {
		basisPoints = 0
	}
	if basisPoints > BucketModulus {
		basisPoints = BucketModulus
	}
	return basisPoints, nil
}

// Admit reports whether stableID is admitted into a rampup of
// rampUpPercent for (salt, featureKey). 0.0 admits nobody and 100.0
// admits everybody as fast-path short-circuits, matching the bucket
// computation's boundary behavior exactly.
func Admit(salt, featureKey string, stableID evalctx.StableID, rampUpPercent float64) (bool, error) {
	if rampUpPercent <= 0.0 {
		return false, nil
	}
	if rampUpPercent >= 100.0 {
		return true, nil
	}
	threshold, err := Threshold(rampUpPercent)
	if err != nil {
		return false, err
	}
	bucket := Bucket(salt, featureKey, stableID)
	return int(bucket) < threshold, nil
}
