package region

import (
	"github.com/Xuanwo/go-locale"
)

// DefaultLanguages seeds the language preference list from the operator's
// OS locale when the configuration supplies none. Falls back to English if
// detection fails. An operator-supplied list always wins; this is only the
// empty-config default.
func DefaultLanguages() []string {
	tag, err := locale.Detect()
	if err != nil {
		return []string{"en"}
	}

	base, _ := tag.Base()
	lang := base.String()
	if lang == "" || lang == "und" {
		return []string{"en"}
	}
	if lang == "en" {
		return []string{"en"}
	}
	return []string{lang, "en"}
}
