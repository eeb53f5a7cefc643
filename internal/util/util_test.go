// internal/util/util_test.go
package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateRunesShortString(t *testing.T) {
	t.Parallel()

	if got := TruncateRunes("short", 10); got != "short" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestTruncateRunesLongString(t *testing.T) {
	t.Parallel()

	got := TruncateRunes(strings.Repeat("a", 20), 10)
	if utf8.RuneCountInString(got) != 11 {
		t.Fatalf("expected 10 runes plus ellipsis, got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}

func TestTruncateRunesMultibyte(t *testing.T) {
	t.Parallel()

	got := TruncateRunes("日本語のテキストです", 4)
	if got != "日本語の…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
