package tool

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var sizePrinter = message.NewPrinter(language.English)

// FormatKiB renders a byte count rounded to whole KiB with thousands
// separators, e.g. 1536000 -> "1,500 KiB".
func FormatKiB(size int64) string {
	return sizePrinter.Sprintf("%d KiB", int64(math.Round(float64(size)/1024)))
}
