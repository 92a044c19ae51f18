// Package evalctx defines the projection the evaluation engine needs
// from a caller-supplied context, and the stable-identifier canon
// used for rollout bucketing and allowlists. The engine is polymorphic
// over concrete context types: anything satisfying Context can be
// evaluated, the same way the teacher's engine accepted a concrete
// *UserContext but projected out only the fields it needed.
package evalctx

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/amichne/konditional/internal/version"
)

// ErrBlankStableID is returned when a caller supplies an empty or
// whitespace-only external identifier to NewStableID.
var ErrBlankStableID = errors.New("evalctx: stable identifier must not be blank")

// StableID is the canonical hex form of a caller's external identity.
// It is the input to rollout bucketing and allowlist membership.
type StableID string

// NewStableID canonicalizes an external identifier: lowercase, then
// hex-encode its UTF-8 bytes. The same external string always yields
// the same StableID (spec.md §3, §6).
func NewStableID(external string) (StableID, error) {
	if strings.TrimSpace(external) == "" {
		return "", ErrBlankStableID
	}
	lowered := strings.ToLower(external)
	return StableID(hex.EncodeToString([]byte(lowered))), nil
}

// Context is the projection the engine needs from a caller context. An
// embedding host implements this over its own concrete request/user
// type; it need not otherwise resemble the evaluation engine's types.
type Context interface {
	Locale() string
	Platform() string
	Version() version.Version
	StableID() StableID
	// AxisValue returns the context's value identifier for the given
	// axis identifier, and whether the axis is present at all.
	AxisValue(axisID string) (string, bool)
}

// Static is a plain, immutable Context implementation for callers that
// do not already have their own context type — analogous to the
// teacher's concrete *UserContext, but satisfying the Context
// interface so it composes with the rest of the engine.
type Static struct {
	locale    string
	platform  string
	version   version.Version
	stableID  StableID
	axisValue map[string]string
}

// NewStatic builds a Static context. axisValues may be nil.
func NewStatic(locale, platform string, v version.Version, stableID StableID, axisValues map[string]string) Static {
	return Static{locale: locale, platform: platform, version: v, stableID: stableID, axisValue: axisValues}
}

func (s Static) Locale() string           { return s.locale }
func (s Static) Platform() string         { return s.platform }
func (s Static) Version() version.Version { return s.version }
func (s Static) StableID() StableID       { return s.stableID }

func (s Static) AxisValue(axisID string) (string, bool) {
	if s.axisValue == nil {
		return "", false
	}
	v, ok := s.axisValue[axisID]
	return v, ok
}
