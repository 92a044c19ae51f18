// Package ctloutput renders registry snapshots for konditionalctl, the
// same split the teacher's internal/cli makes between table and JSON
// rendering of domain objects.
package ctloutput

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
)

// Format selects how PrintSnapshot renders its output. YAML is
// deliberately not offered: gopkg.in/yaml.v3 is not a direct
// dependency of this module.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// PrintSnapshot writes snap to stdout in the requested format.
func PrintSnapshot(snap *registry.Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		return printJSON(snap)
	case FormatTable, "":
		return printTable(snap)
	default:
		return fmt.Errorf("ctloutput: unsupported format %q", format)
	}
}

// PrintFeature writes a single feature's current definition.
func PrintFeature(snap *registry.Snapshot, featureKey string, format Format) error {
	fd, ok := snap.Features[featureKey]
	if !ok {
		return fmt.Errorf("ctloutput: feature %q has no entry in this snapshot", featureKey)
	}
	switch format {
	case FormatJSON:
		return printJSON(fd)
	case FormatTable, "":
		return printFeatureTable(featureKey, fd)
	default:
		return fmt.Errorf("ctloutput: unsupported format %q", format)
	}
}

func printJSON(data any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printTable(snap *registry.Snapshot) error {
	keys := make([]string, 0, len(snap.Features))
	for k := range snap.Features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Feature", "Active", "Rules", "Default")
	for _, key := range keys {
		fd := snap.Features[key]
		table.Append(key, fmt.Sprintf("%t", fd.Active), fmt.Sprintf("%d", len(fd.Rules)), renderValue(fd.Default))
	}
	return table.Render()
}

func printFeatureTable(key string, fd *flagdef.FlagDefinition) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Feature", "Active", "Salt", "Rules", "Default")
	table.Append(key, fmt.Sprintf("%t", fd.Active), fd.Salt, fmt.Sprintf("%d", len(fd.Rules)), renderValue(fd.Default))
	return table.Render()
}

func renderValue(v flagdef.Value) string {
	switch v.Kind {
	case konfig.Boolean:
		b, _ := v.Bool()
		return fmt.Sprintf("%t", b)
	case konfig.String:
		s, _ := v.String()
		return s
	case konfig.Int:
		i, _ := v.Int()
		return fmt.Sprintf("%d", i)
	case konfig.Double:
		d, _ := v.Double()
		return fmt.Sprintf("%g", d)
	case konfig.Enum:
		e, _ := v.Enum()
		return e
	case konfig.Record:
		rec, _ := v.Record()
		b, _ := json.Marshal(rec)
		return string(b)
	default:
		return ""
	}
}
