package uri

import (
	"errors"
	"net/url"
	"testing"
)

func TestBuildFillsPlaceholder(t *testing.T) {
	got, err := Build("http://localhost:7070", "/api/server/post-call/{query}", nil, "phone")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "http://localhost:7070/api/server/post-call/phone" {
		t.Fatalf("unexpected uri %s", got)
	}
}

func TestBuildEscapesPlaceholderValue(t *testing.T) {
	got, err := Build("http://localhost:7070", "/api/server/post-call/{query}", nil, "air pods/pro")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "http://localhost:7070/api/server/post-call/air%20pods%2Fpro" {
		t.Fatalf("unexpected uri %s", got)
	}
}

func TestBuildEncodesQuery(t *testing.T) {
	got, err := Build("http://localhost:7070", "/api/server/get-call-obj", url.Values{"query": {"air pods"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "http://localhost:7070/api/server/get-call-obj?query=air%20pods" {
		t.Fatalf("unexpected uri %s", got)
	}

	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse built uri: %v", err)
	}
	q := parsed.Query()
	if len(q) != 1 || q.Get("query") != "air pods" {
		t.Fatalf("unexpected query params %v", q)
	}
}

func TestBuildKeepsLiteralPlus(t *testing.T) {
	got, err := Build("http://localhost:7070", "/search", url.Values{"query": {"c++ book"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "http://localhost:7070/search?query=c%2B%2B%20book" {
		t.Fatalf("unexpected uri %s", got)
	}
}

func TestBuildWithoutQuery(t *testing.T) {
	got, err := Build("http://localhost:7070/", "/api/server/get-call-list", url.Values{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "http://localhost:7070/api/server/get-call-list" {
		t.Fatalf("unexpected uri %s", got)
	}
}

func TestBuildPlaceholderArity(t *testing.T) {
	cases := map[string][]string{
		"missing value": nil,
		"extra value":   {"a", "b"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build("http://localhost:7070", "/api/server/post-call/{query}", nil, vars...)
			var inputErr *CallerInputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected CallerInputError, got %v", err)
			}
		})
	}

	if _, err := Build("http://localhost:7070", "/api/server/get-call-list", nil, "stray"); err == nil {
		t.Fatalf("expected error for value without placeholder")
	}
}

func TestBuildRejectsBlankPlaceholderValue(t *testing.T) {
	_, err := Build("http://localhost:7070", "/api/server/post-call/{query}", nil, "  ")
	if !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
	var inputErr *CallerInputError
	if !errors.As(err, &inputErr) || inputErr.Param != "query" {
		t.Fatalf("expected CallerInputError for query, got %#v", err)
	}
}

func TestBuildRejectsInvalidBase(t *testing.T) {
	for _, base := range []string{"", "localhost:7070/x", "/relative", "http://host:7070?x=1"} {
		if _, err := Build(base, "/api", nil); err == nil {
			t.Fatalf("expected error for base %q", base)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders("/api/server/post-call/{query}"); len(got) != 1 || got[0] != "{query}" {
		t.Fatalf("unexpected placeholders %v", got)
	}
	if got := Placeholders("/api/server/get-call-list"); len(got) != 0 {
		t.Fatalf("expected no placeholders, got %v", got)
	}
}
