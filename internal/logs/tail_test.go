package logs

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shortpipe.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailMissingFileIsEmpty(t *testing.T) {
	result, err := Tail(context.Background(), filepath.Join(t.TempDir(), "absent.log"), TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("result = %+v, want empty at offset 0", result)
	}
}

func TestTailNegativeOffsetReturnsLastLines(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\nfour\nfive\n")

	result, err := Tail(context.Background(), path, TailOptions{Offset: -1, Limit: 3})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	want := []string{"three", "four", "five"}
	if !reflect.DeepEqual(result.Lines, want) {
		t.Fatalf("lines = %v, want %v", result.Lines, want)
	}
	if result.Offset == 0 {
		t.Fatal("resume offset not advanced to end of file")
	}
}

func TestTailLimitLargerThanFile(t *testing.T) {
	path := writeLog(t, "alpha\nbeta\n")

	result, err := Tail(context.Background(), path, TailOptions{Offset: -1, Limit: 50})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(result.Lines, want) {
		t.Fatalf("lines = %v, want %v", result.Lines, want)
	}
}

func TestTailResumesFromOffset(t *testing.T) {
	path := writeLog(t, "first\nsecond\n")
	ctx := context.Background()

	initial, err := Tail(ctx, path, TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := file.WriteString("third\nfourth\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	file.Close()

	next, err := Tail(ctx, path, TailOptions{Offset: initial.Offset, Limit: 10})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	want := []string{"third", "fourth"}
	if !reflect.DeepEqual(next.Lines, want) {
		t.Fatalf("lines = %v, want %v", next.Lines, want)
	}
	if next.Offset <= initial.Offset {
		t.Fatalf("offset did not advance: %d -> %d", initial.Offset, next.Offset)
	}
}

func TestTailOffsetPastEndClampsToFileSize(t *testing.T) {
	path := writeLog(t, "only\n")

	result, err := Tail(context.Background(), path, TailOptions{Offset: 1 << 20, Limit: 10})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 0 {
		t.Fatalf("lines = %v, want none past end of file", result.Lines)
	}
}

func TestTailZeroLimitSkipsToEnd(t *testing.T) {
	path := writeLog(t, "skipped\nlines\n")

	result, err := Tail(context.Background(), path, TailOptions{Offset: -1, Limit: 0})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 0 {
		t.Fatalf("lines = %v, want none with zero limit", result.Lines)
	}

	// The returned offset still lands at end of file so follow mode can
	// pick up from here.
	again, err := Tail(context.Background(), path, TailOptions{Offset: result.Offset, Limit: 10})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(again.Lines) != 0 {
		t.Fatalf("lines = %v, want none at end of file", again.Lines)
	}
}

func TestTailRejectsDirectory(t *testing.T) {
	if _, err := Tail(context.Background(), t.TempDir(), TailOptions{Offset: -1, Limit: 10}); err == nil {
		t.Fatal("expected error for directory path")
	}
}
