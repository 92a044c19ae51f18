package codec

import "encoding/json"

// Wire types mirror spec.md §6's canonical JSON configuration format
// field for field. They are unexported: the codec's only public surface
// is Decode/Encode/ApplyPatchJSON/Diff operating on flagdef/registry
// domain types, never on these wire shapes directly.

type wireRoot struct {
	Meta  wireMeta   `json:"meta"`
	Flags []wireFlag `json:"flags"`
}

type wireMeta struct {
	Version                string `json:"version,omitempty"`
	GeneratedAtEpochMillis int64  `json:"generatedAtEpochMillis,omitempty"`
	Source                 string `json:"source,omitempty"`
}

type wireFlag struct {
	Key             string     `json:"key"`
	DefaultValue    wireValue  `json:"defaultValue"`
	Salt            string     `json:"salt"`
	IsActive        bool       `json:"isActive"`
	RampUpAllowlist []string   `json:"rampUpAllowlist,omitempty"`
	Rules           []wireRule `json:"rules,omitempty"`
}

type wireRule struct {
	Value           wireValue           `json:"value"`
	RampUp          float64             `json:"rampUp"`
	RampUpAllowlist []string            `json:"rampUpAllowlist,omitempty"`
	Note            *string             `json:"note,omitempty"`
	Locales         []string            `json:"locales,omitempty"`
	Platforms       []string            `json:"platforms,omitempty"`
	VersionRange    wireVersionRange    `json:"versionRange"`
	Axes            map[string][]string `json:"axes,omitempty"`
}

type wireValue struct {
	Type          string          `json:"type"`
	Value         json.RawMessage `json:"value"`
	EnumClassName string          `json:"enumClassName,omitempty"`
	DataClassName string          `json:"dataClassName,omitempty"`
}

type wireVersion struct {
	Major uint64 `json:"major"`
	Minor uint64 `json:"minor"`
	Patch uint64 `json:"patch"`
}

type wireVersionRange struct {
	Type string       `json:"type"`
	Min  *wireVersion `json:"min,omitempty"`
	Max  *wireVersion `json:"max,omitempty"`
}

type wirePatch struct {
	Flags      []wireFlag `json:"flags,omitempty"`
	RemoveKeys []string   `json:"removeKeys,omitempty"`
}
