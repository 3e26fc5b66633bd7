package pipeline

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"placement/internal/util"
)

//go:embed lookup_tables.yaml
var lookupTablesYAML []byte

type lookupFile struct {
	Version int                      `yaml:"version"`
	Tables  map[string][]lookupEntry `yaml:"tables"`
}

type lookupEntry struct {
	Column  string   `yaml:"column"`
	Headers []string `yaml:"headers"`
}

// LookupTable maps flat header names of one exam type to canonical columns.
// Matching is case-insensitive and ignores surrounding whitespace.
type LookupTable struct {
	Name    string
	Version int
	entries map[string]string
}

// Resolve returns the canonical column for a flat header name.
func (l *LookupTable) Resolve(name string) (string, bool) {
	if l == nil {
		return "", false
	}
	col, ok := l.entries[util.NormalizeKey(name)]
	return col, ok
}

// Keys lists the normalized header names of the table in sorted order.
func (l *LookupTable) Keys() []string {
	out := make([]string, 0, len(l.entries))
	for k := range l.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LoadLookupTables parses lookup data and rejects unknown target columns and
// aliases that normalize to the same key with different targets.
func LoadLookupTables(data []byte) (map[string]*LookupTable, error) {
	var file lookupFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse lookup tables: %w", err)
	}
	if len(file.Tables) == 0 {
		return nil, fmt.Errorf("parse lookup tables: no tables defined")
	}

	out := make(map[string]*LookupTable, len(file.Tables))
	for name, entries := range file.Tables {
		table := &LookupTable{Name: name, Version: file.Version, entries: map[string]string{}}
		for _, entry := range entries {
			if !IsCanonicalColumn(entry.Column) {
				return nil, fmt.Errorf("lookup table %s: unknown column %q", name, entry.Column)
			}
			for _, header := range entry.Headers {
				key := util.NormalizeKey(header)
				if key == "" {
					return nil, fmt.Errorf("lookup table %s: blank header for %s", name, entry.Column)
				}
				if prev, ok := table.entries[key]; ok && prev != entry.Column {
					return nil, fmt.Errorf("lookup table %s: header %q maps to both %s and %s", name, header, prev, entry.Column)
				}
				table.entries[key] = entry.Column
			}
		}
		out[name] = table
	}
	return out, nil
}

var (
	builtinOnce   sync.Once
	builtinTables map[string]*LookupTable
	builtinErr    error
)

func builtinLookup(name string) *LookupTable {
	builtinOnce.Do(func() {
		builtinTables, builtinErr = LoadLookupTables(lookupTablesYAML)
	})
	if builtinErr != nil {
		panic(fmt.Sprintf("embedded lookup tables: %v", builtinErr))
	}
	table, ok := builtinTables[name]
	if !ok {
		panic(fmt.Sprintf("embedded lookup tables: missing table %s", name))
	}
	return table
}

func DACLookup() *LookupTable {
	return builtinLookup("DAC")
}

func DBDALookup() *LookupTable {
	return builtinLookup("DBDA")
}
