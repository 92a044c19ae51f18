package flagdef

import "github.com/amichne/konditional/internal/konfig"

// ZeroValue returns the compile-time default substituted when a
// feature is declared but no flag definition exists for it in the
// current snapshot (FlagNotFound degrades to this, never to a panic).
func ZeroValue(f *konfig.Feature) Value {
	switch f.Type {
	case konfig.Boolean:
		return BoolValue(false)
	case konfig.String:
		return StringValue("")
	case konfig.Int:
		return IntValue(0)
	case konfig.Double:
		return DoubleValue(0)
	case konfig.Enum:
		if f.Enum != nil && len(f.Enum.Values) > 0 {
			return EnumValue(f.Enum.Values[0])
		}
		return EnumValue("")
	case konfig.Record:
		return RecordValue(map[string]any{})
	default:
		return Value{}
	}
}
