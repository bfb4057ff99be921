package helpers

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatWon renders a KRW price with thousand separators; prices under 100
// won keep two decimals, anything above is rounded to whole won.
func FormatWon(price float64) string {
	decimals := 0
	if price < 100 {
		decimals = 2
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price) + "₩"
}

// FormatPct renders a percentage with an explicit sign, e.g. "+5.00%".
func FormatPct(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}
