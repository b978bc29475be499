// Package l10n translates user-visible messages through gettext catalogs in
// the "startupapp" text domain. Untranslated strings are returned as is.
package l10n

import (
	"fmt"

	"github.com/snapcore/go-gettext"
)

// Domain is the gettext text domain of the program's catalogs.
const Domain = "startupapp"

var locale gettext.Catalog

func init() {
	domain := gettext.TextDomain{Name: Domain}
	locale = domain.UserLocale()
}

// T localizes simple strings. When vars are given the translation is used as
// a format string.
func T(str string, vars ...any) string {
	translation := locale.Gettext(str)
	if len(vars) > 0 {
		translation = fmt.Sprintf(translation, vars...)
	}
	return translation
}

// TN localizes strings with plurals.
func TN(singular, plural string, n uint32, vars ...any) string {
	translation := locale.NGettext(singular, plural, n)
	if len(vars) > 0 {
		translation = fmt.Sprintf(translation, vars...)
	}
	return translation
}
