package l10n

import "testing"

func TestT_Untranslated(t *testing.T) {
	if got := T("for help use the --help application command line flag"); got != "for help use the --help application command line flag" {
		t.Errorf("unexpected translation %q", got)
	}
	if got := T("unknown logging system %q", "syslog"); got != `unknown logging system "syslog"` {
		t.Errorf("unexpected formatting %q", got)
	}
}

func TestTN_Untranslated(t *testing.T) {
	if got := TN("%d file failed to load", "%d files failed to load", 1, 1); got != "1 file failed to load" {
		t.Errorf("unexpected singular %q", got)
	}
	if got := TN("%d file failed to load", "%d files failed to load", 3, 3); got != "3 files failed to load" {
		t.Errorf("unexpected plural %q", got)
	}
}
