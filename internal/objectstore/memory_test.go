package objectstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemorySinkCommonPrefixes(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink()
	for _, key := range []string{"Mar_2025/DAC_Result.csv", "Mar_2025/Registration.csv", "Sep_2024/DBDA_Result.csv", "loose.txt"} {
		if err := sink.Put(ctx, "data", key, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := sink.ListCommonPrefixes(ctx, "data", "", "/")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Mar_2025/", "Sep_2024/"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}

	empty, err := sink.ListCommonPrefixes(ctx, "other", "", "/")
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestMemorySinkFailPut(t *testing.T) {
	sink := NewMemorySink()
	sink.FailPut("data", "k", errors.New("denied"))

	err := sink.Put(context.Background(), "data", "k", []byte("x"))
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if storageErr.Op != "put" || storageErr.Key != "k" {
		t.Fatalf("unexpected error %+v", storageErr)
	}
	if _, ok := sink.Get("data", "k"); ok {
		t.Fatal("failed put must not store the object")
	}
}

func TestMemorySinkCopiesBody(t *testing.T) {
	sink := NewMemorySink()
	body := []byte("abc")
	if err := sink.Put(context.Background(), "data", "k", body); err != nil {
		t.Fatal(err)
	}
	body[0] = 'z'
	got, _ := sink.Get("data", "k")
	if string(got) != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	limiter := NewRateLimiter(1)
	ctx := context.Background()
	if err := limiter.WaitTurn(ctx); err != nil {
		t.Fatal(err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	start := time.Now()
	if err := limiter.WaitTurn(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("cancelled wait should return promptly")
	}
}
