package httpclient

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBodySnippetKeepsShortBodies(t *testing.T) {
	if got := BodySnippet([]byte("  remote failure \n")); got != "remote failure" {
		t.Fatalf("unexpected snippet %q", got)
	}
}

func TestBodySnippetCutsOnRuneBoundary(t *testing.T) {
	body := "a" + strings.Repeat("한", 300)

	got := BodySnippet([]byte(body))
	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation marker, got %q", got[len(got)-5:])
	}
	if n := len(strings.TrimSuffix(got, "...")); n > MaxBodySnippet || n != 511 {
		t.Fatalf("unexpected snippet length %d", n)
	}
}

func TestBodySnippetCutsASCIIAtLimit(t *testing.T) {
	got := BodySnippet([]byte(strings.Repeat("x", 600)))
	if len(got) != MaxBodySnippet+3 {
		t.Fatalf("unexpected snippet length %d", len(got))
	}
}
