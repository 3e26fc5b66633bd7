package pipeline

import (
	"reflect"
	"testing"
)

func TestJoinHeader(t *testing.T) {
	cases := []struct {
		top, sub, want string
	}{
		{"Total", "800", "Total_800"},
		{"", "PRN", "PRN"},
		{"Web-Based Java Programming", "Result", "Web-Based Java Programming_Result"},
		{"  Total ", " % ", "Total_%"},
		{"Total", "", "Total"},
		{"Total", "   ", "Total"},
		{"", "", ""},
		{"Unnamed: 3_level_0", "", "Unnamed: 3_level_0"},
	}
	for _, tc := range cases {
		t.Run(tc.top+"|"+tc.sub, func(t *testing.T) {
			got := JoinHeader(tc.top, tc.sub)
			if got != tc.want {
				t.Fatalf("JoinHeader(%q,%q)=%q want %q", tc.top, tc.sub, got, tc.want)
			}
			if again := JoinHeader(tc.top, tc.sub); again != got {
				t.Fatalf("not deterministic: %q vs %q", got, again)
			}
		})
	}
}

func TestNormalizeHeadersKeepsOrderAndRows(t *testing.T) {
	raw := &RawTable{
		Headers: []HeaderPair{{"", "PRN"}, {"Total", "800"}, {"Unnamed: 2_level_0", ""}},
		Rows:    [][]string{{"1", "500", "x"}, {"2", "400", "y"}},
	}
	got := NormalizeHeaders(raw)

	want := []string{"PRN", "Total_800", "Unnamed: 2_level_0"}
	if !reflect.DeepEqual(got.Columns, want) {
		t.Fatalf("columns=%v want %v", got.Columns, want)
	}
	if !reflect.DeepEqual(got.Rows, raw.Rows) {
		t.Fatalf("rows changed: %v", got.Rows)
	}
}

func TestFillHeaderRows(t *testing.T) {
	got := fillHeaderRows([][]string{
		{"", "Java", "", "Total", "", ""},
		{"PRN", "Theory", "Lab", "800", "", "Grade"},
	})
	want := [][]string{
		{"", "Java", "Java", "Total", "Total", "Total"},
		{"PRN", "Theory", "Lab", "800", "800", "Grade"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestFillHeaderRowsSubLevelFollowsBlankTop(t *testing.T) {
	// A sub label only inherits from the left where the top label was blank.
	got := fillHeaderRows([][]string{
		{"A", "", "B"},
		{"x", "", ""},
	})
	want := [][]string{
		{"A", "A", "B"},
		{"x", "x", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{"PRN", "", "Name", "Name", "Name.1", " ", "Name"})
	want := []string{"PRN", "Unnamed: 1", "Name", "Name.1", "Name.1.1", "Unnamed: 5", "Name.2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}
