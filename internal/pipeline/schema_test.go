package pipeline

import (
	"reflect"
	"testing"
)

func TestMapToCanonicalProjection(t *testing.T) {
	inputs := map[string]*Table{
		"empty": {Columns: []string{}, Rows: [][]string{}},
		"only prn": {
			Columns: []string{"PRN"},
			Rows:    [][]string{{"1"}, {"2"}},
		},
		"extra columns": {
			Columns: []string{"Name", "Total_Result", "PRN", "Remarks"},
			Rows:    [][]string{{"A", "Pass", "1", "-"}},
		},
		"all recognised": {
			Columns: []string{"Total_Project Grade", "Total_Apti & EC Grade", "Total_Result", "Total_Grade", "Total_%", "Total_800", "PRN"},
			Rows:    [][]string{{"A", "B", "Pass", "C", "55", "440", "9"}},
		},
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got := MapToCanonical(in, DACLookup())
			if !reflect.DeepEqual(got.Columns, CanonicalSchema) {
				t.Fatalf("columns=%v", got.Columns)
			}
			if len(got.Rows) != len(in.Rows) {
				t.Fatalf("rows=%d want %d", len(got.Rows), len(in.Rows))
			}
			for _, row := range got.Rows {
				if len(row) != len(CanonicalSchema) {
					t.Fatalf("row width %d", len(row))
				}
			}
		})
	}
}

func TestMapToCanonicalRecomputesTotal(t *testing.T) {
	in := &Table{
		Columns: []string{"PRN", "X_Total", "Y_Total", "Z_Total", "Total_800"},
		Rows: [][]string{
			{"1", "300", "200", "not a number", "999"},
			{"2", "", " 12.5 ", "7", "999"},
		},
	}
	got := MapToCanonical(in, DACLookup())

	total, _ := got.Column(ColumnTotal800)
	if want := []string{"500", "19.5"}; !reflect.DeepEqual(total, want) {
		t.Fatalf("Total800=%v want %v", total, want)
	}
}

func TestMapToCanonicalTotalWithoutParts(t *testing.T) {
	in := &Table{
		Columns: []string{"PRN", "Total_800"},
		Rows:    [][]string{{"1", "640"}},
	}
	got := MapToCanonical(in, DACLookup())
	total, _ := got.Column(ColumnTotal800)
	if total[0] != "0" {
		t.Fatalf("Total800=%q, the renamed value must not survive", total[0])
	}
}

func TestMapToCanonicalTotalMatchIsCaseSensitive(t *testing.T) {
	in := &Table{
		Columns: []string{"PRN", "lab total", "Lab Total"},
		Rows:    [][]string{{"1", "100", "40"}},
	}
	got := MapToCanonical(in, DACLookup())
	total, _ := got.Column(ColumnTotal800)
	if total[0] != "40" {
		t.Fatalf("Total800=%q want 40", total[0])
	}
}

func TestMapToCanonicalCaseInsensitiveLookup(t *testing.T) {
	exact := &Table{Columns: []string{"total_grade"}, Rows: [][]string{{"A"}}}
	shouted := &Table{Columns: []string{"  TOTAL_Grade "}, Rows: [][]string{{"A"}}}

	a := MapToCanonical(exact, DBDALookup())
	b := MapToCanonical(shouted, DBDALookup())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("case variants differ: %v vs %v", a.Rows, b.Rows)
	}
	grade, _ := b.Column(ColumnGrade)
	if grade[0] != "A" {
		t.Fatalf("Grade=%q", grade[0])
	}
}

func TestMapToCanonicalSynthesizesMissingSection(t *testing.T) {
	in := &Table{
		Columns: []string{"PRN", "Total_Grade"},
		Rows:    [][]string{{"1", "A"}, {"2", "B"}, {"3", "C"}},
	}
	got := MapToCanonical(in, DBDALookup())

	apti, ok := got.Column(ColumnAptiEC)
	if !ok {
		t.Fatal("Apti_EC_Grade missing")
	}
	if want := []string{"", "", ""}; !reflect.DeepEqual(apti, want) {
		t.Fatalf("Apti_EC_Grade=%q", apti)
	}
}

func TestMapToCanonicalLeftmostDuplicateWins(t *testing.T) {
	in := &Table{
		Columns: []string{"PRN", "Total_Grade", "Web-Based Java Programming_Grade"},
		Rows:    [][]string{{"1", "A", "B"}},
	}
	got := MapToCanonical(in, DACLookup())
	grade, _ := got.Column(ColumnGrade)
	if grade[0] != "A" {
		t.Fatalf("Grade=%q want leftmost value", grade[0])
	}
}
