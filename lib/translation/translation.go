// Package translation wraps gotext so alert messages can ship in the
// language configured via LANG (locales/ holds the catalogs; missing
// entries fall back to the message id).
package translation

import (
	"github.com/leonelquinteros/gotext"
)

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
