// Package i18n wraps github.com/snapcore/go-gettext so that user-facing
// strings emitted by the CLI and daemon logs can be translated, following
// the same shape as snapd's own i18n package: a package-level Locale bound
// to one message domain, with G/NG convenience wrappers.
package i18n

import (
	"os"

	"github.com/snapcore/go-gettext"
)

const TextDomain = "sec-lsm-manager"

var localeDir = "/usr/share/locale"

func langCode() string {
	for _, key := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "C"
}

var locale = gettext.NewLocale(localeDir, langCode())

func init() {
	locale.AddDomain(TextDomain)
}

// G translates msgid in the default domain.
func G(msgid string) string {
	return locale.Get(TextDomain, msgid)
}

// NG translates msgid/msgidPlural in the default domain, selecting the
// plural form appropriate for n.
func NG(msgid, msgidPlural string, n uint32) string {
	return locale.GetN(TextDomain, msgid, msgidPlural, n)
}
