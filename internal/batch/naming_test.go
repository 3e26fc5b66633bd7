package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"placement/internal"
	"placement/internal/objectstore"
)

func TestName(t *testing.T) {
	cases := []struct {
		month, year, want string
	}{
		{"March", "2025", "Mar_2025"},
		{"September", "2024", "Sep_2024"},
		{"UnknownMonth", "2025", "Unk_2025"},
		{"Ju", "2025", "Ju_2025"},
		{"march", "2025", "mar_2025"},
		{"", "2025", "_2025"},
	}
	for _, tc := range cases {
		t.Run(tc.month, func(t *testing.T) {
			if got := Name(tc.month, tc.year); got != tc.want {
				t.Fatalf("Name(%q,%q)=%q want %q", tc.month, tc.year, got, tc.want)
			}
		})
	}
}

func TestMarker(t *testing.T) {
	id := Name("September", "2025")
	if got := MarkerKey(id); got != "Sep_2025.txt" {
		t.Fatalf("key=%q", got)
	}
	if got := MarkerBody(id); got != "Batch Sep_2025 upload complete" {
		t.Fatalf("body=%q", got)
	}
}

func TestArtifactKeys(t *testing.T) {
	id := "Mar_2025"
	cases := []struct {
		slot   internal.Slot
		course string
		want   string
	}{
		{internal.SlotDAC, "", "Mar_2025/DAC_Result.csv"},
		{internal.SlotDBDA, "", "Mar_2025/DBDA_Result.csv"},
		{internal.SlotRegistration, "", "Mar_2025/Registration.csv"},
		{internal.SlotMasterData, "DAC", "Mar_2025/MasterData_DAC.csv"},
		{internal.SlotMasterData, "DBDA", "Mar_2025/MasterData_DBDA.csv"},
		{internal.SlotPlacement, "DAC", "Mar_2025/Placement_DAC.csv"},
		{internal.SlotPlacement, "DBDA", "Mar_2025/Placement_DBDA.csv"},
	}
	for _, tc := range cases {
		if got := ArtifactKey(id, ArtifactName(tc.slot, tc.course)); got != tc.want {
			t.Fatalf("%s/%s: got %q want %q", tc.slot, tc.course, got, tc.want)
		}
	}
}

func TestFilterFolders(t *testing.T) {
	folders := []string{"Mar_2025", "Sep_2024", "Sep_2025", "archive"}
	cases := []struct {
		search string
		want   []string
	}{
		{"", folders},
		{"2025", []string{"Mar_2025", "Sep_2025"}},
		{"september", []string{"Sep_2024", "Sep_2025"}},
		{" MAR ", []string{"Mar_2025"}},
		{"arch", []string{"archive"}},
		{"nothing", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.search, func(t *testing.T) {
			got := FilterFolders(folders, tc.search)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v want %v", got, tc.want)
				}
			}
		})
	}
}

func TestListFolders(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := objectstore.NewMemorySink()
	_ = sink.Put(ctx, "data", "Mar_2025/DAC_Result.csv", []byte("x"))
	_ = sink.Put(ctx, "data", "Sep_2024/Registration.csv", []byte("x"))

	got, err := ListFolders(ctx, sink, "data", log)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "Mar_2025" || got[1] != "Sep_2024" {
		t.Fatalf("got %v", got)
	}

	sink.FailList(errors.New("unreachable"))
	got, err = ListFolders(ctx, sink, "data", log)
	if err == nil {
		t.Fatal("expected listing error to surface")
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty list on failure, got %#v", got)
	}
}
