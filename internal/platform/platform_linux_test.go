package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gvillage/startupapp/internal/conf"
)

// TestCollect_Linux runs the real routine against a fake registry. The
// hostname1 step depends on the machine, so only the facts that every Linux
// host provides are checked.
func TestCollect_Linux(t *testing.T) {
	registry := filepath.Join(t.TempDir(), "passwd")
	if err := os.WriteFile(registry, []byte(passwd), 0644); err != nil {
		t.Fatalf("failed to write registry: %v", err)
	}
	p := &Provider{
		GOOS:     "linux",
		Registry: registry,
		Getenv: func(k string) string {
			if k == "LOGNAME" {
				return "alice"
			}
			return ""
		},
	}

	facts, partial, err := p.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, pe := range partial {
		if pe.Fact != "hostname1" {
			t.Errorf("unexpected partial failure: %v", pe)
		}
	}

	if got := facts.String(conf.KeyUserID); got != "alice" {
		t.Errorf("expected userid=alice, got %q", got)
	}
	if got := facts.String(conf.KeyUserName); got != "Alice Liddell" {
		t.Errorf("expected username=Alice Liddell, got %q", got)
	}
	if got := facts.String(conf.KeyOSSystem); got != "Linux" {
		t.Errorf("expected os.system=Linux, got %q", got)
	}
	if got := facts.String(conf.KeyPlatformID); got != "linux" {
		t.Errorf("expected plid=linux, got %q", got)
	}
	for _, key := range []string{conf.KeyUID, conf.KeyGID, conf.KeyComputerName} {
		entry, ok := facts.Get(key)
		if !ok {
			t.Errorf("missing %s", key)
			continue
		}
		if entry.Overridable || entry.Origin != conf.Platform {
			t.Errorf("%s: expected locked platform entry, got %+v", key, entry)
		}
	}
}
