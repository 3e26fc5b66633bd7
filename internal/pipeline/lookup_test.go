package pipeline

import (
	"strings"
	"testing"
)

func TestBuiltinLookupTables(t *testing.T) {
	for _, table := range []*LookupTable{DACLookup(), DBDALookup()} {
		t.Run(table.Name, func(t *testing.T) {
			if table.Version < 1 {
				t.Fatalf("version=%d", table.Version)
			}
			targets := map[string]bool{}
			for _, key := range table.Keys() {
				if key != strings.ToLower(strings.TrimSpace(key)) {
					t.Fatalf("key %q is not normalized", key)
				}
				col, _ := table.Resolve(key)
				targets[col] = true
			}
			for _, col := range CanonicalSchema {
				if !targets[col] {
					t.Fatalf("no header maps to %s", col)
				}
			}
		})
	}
}

func TestLookupVariants(t *testing.T) {
	cases := []struct {
		table  *LookupTable
		header string
		want   string
	}{
		{DACLookup(), "Unnamed: 0_level_0_PRN", "PRN"},
		{DACLookup(), "PRN", "PRN"},
		{DACLookup(), "Total_800", "Total800"},
		{DACLookup(), "Web-Based Java Programming_Total/800", "Total800"},
		{DACLookup(), "Web-Based Java Programming_Apti & EC Grade", "Apti_EC_Grade"},
		{DACLookup(), "Total_%", "CDAC_Percentage"},
		{DBDALookup(), "Practical Machine learning_Total/600", "Total800"},
		{DBDALookup(), "Practical Machine Learning_Total/800", "Total800"},
		{DBDALookup(), "Practical Machine Learning_Apti & EC Grade", "Apti_EC_Grade"},
		{DBDALookup(), "Practical Machine learning_Result", "Result"},
		{DBDALookup(), "total_project grade", "Project_Grade"},
	}
	for _, tc := range cases {
		t.Run(tc.table.Name+"/"+tc.header, func(t *testing.T) {
			got, ok := tc.table.Resolve(tc.header)
			if !ok || got != tc.want {
				t.Fatalf("Resolve(%q)=%q,%v want %q", tc.header, got, ok, tc.want)
			}
		})
	}
}

func TestLookupIsCaseAndSpaceInsensitive(t *testing.T) {
	for _, table := range []*LookupTable{DACLookup(), DBDALookup()} {
		for _, key := range table.Keys() {
			want, _ := table.Resolve(key)
			for _, variant := range []string{strings.ToUpper(key), "  " + key + "\t"} {
				got, ok := table.Resolve(variant)
				if !ok || got != want {
					t.Fatalf("%s: Resolve(%q)=%q,%v want %q", table.Name, variant, got, ok, want)
				}
			}
		}
	}
}

func TestLookupUnknownHeader(t *testing.T) {
	if col, ok := DACLookup().Resolve("Web-Based Java Programming_Theory"); ok {
		t.Fatalf("unexpected match %q", col)
	}
	var nilTable *LookupTable
	if _, ok := nilTable.Resolve("PRN"); ok {
		t.Fatal("nil table should not resolve")
	}
}

func TestLoadLookupTablesRejectsBadData(t *testing.T) {
	cases := map[string]string{
		"conflict": `
version: 1
tables:
  X:
    - column: Grade
      headers: ["Total_Grade"]
    - column: Result
      headers: ["total_grade "]
`,
		"unknown column": `
version: 1
tables:
  X:
    - column: Marks
      headers: ["total_marks"]
`,
		"blank header": `
version: 1
tables:
  X:
    - column: PRN
      headers: ["  "]
`,
		"empty":  `version: 1`,
		"syntax": `tables: [`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadLookupTables([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadLookupTablesMergesAgreeingVariants(t *testing.T) {
	tables, err := LoadLookupTables([]byte(`
version: 3
tables:
  X:
    - column: Grade
      headers: ["Total_Grade", "total_grade", " TOTAL_GRADE"]
`))
	if err != nil {
		t.Fatal(err)
	}
	x := tables["X"]
	if x.Version != 3 || len(x.Keys()) != 1 {
		t.Fatalf("unexpected table: version=%d keys=%v", x.Version, x.Keys())
	}
}
