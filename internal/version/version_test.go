package version

import (
	"strings"
	"testing"
)

func TestVersionParsed(t *testing.T) {
	if VERSION == "" || strings.HasSuffix(VERSION, "\n") {
		t.Fatalf("unexpected VERSION %q", VERSION)
	}
	if MAJOR == 0 && MINOR == 0 && FIX == 0 {
		t.Fatalf("version segments not parsed from %q", VERSION)
	}
	if ua := UserAgent(); ua != "mathhub/"+VERSION {
		t.Fatalf("unexpected user agent %q", ua)
	}
}
