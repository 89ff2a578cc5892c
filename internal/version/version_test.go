package version

import (
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	saved := Commit
	t.Cleanup(func() { Commit = saved })

	Commit = "0123456789abcdef"
	if got := Short(); got != "0123456" {
		t.Errorf("expected 0123456, got %q", got)
	}
	Commit = "abc"
	if got := Short(); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
	if !strings.HasPrefix(String(), "ara dev (commit: abc") {
		t.Errorf("unexpected version string %q", String())
	}
}
