package util

import (
	"strings"
	"testing"
)

func TestAppendQueryParam(t *testing.T) {
	got := AppendQueryParam("https://www.netflix.com/search?q=breaking+bad", "tag", "showdex-21")
	if !strings.Contains(got, "tag=showdex-21") {
		t.Fatalf("expected tag param, got %q", got)
	}
	if !strings.Contains(got, "q=breaking+bad") {
		t.Fatalf("existing params must survive, got %q", got)
	}
}

func TestAppendQueryParamIdempotent(t *testing.T) {
	once := AppendQueryParam("https://example.com/watch", "utm_source", "showdex")
	twice := AppendQueryParam(once, "utm_source", "other")
	if once != twice {
		t.Fatalf("expected existing key untouched, got %q then %q", once, twice)
	}
	if strings.Count(twice, "utm_source") != 1 {
		t.Fatalf("expected a single utm_source param, got %q", twice)
	}
}

func TestAppendQueryParamUnparseable(t *testing.T) {
	raw := "://not a url"
	if got := AppendQueryParam(raw, "k", "v"); got != raw {
		t.Fatalf("unparseable URL must pass through, got %q", got)
	}
}
