package predict

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.English)

// FormatUSD renders v as dollars with thousands separators and two decimals,
// e.g. $12,345.67.
func FormatUSD(v float64) string {
	if v < 0 {
		return "-" + usd.Sprintf("$%.2f", math.Abs(v))
	}
	return usd.Sprintf("$%.2f", v)
}

// Headline is the sentence shown under the prediction form.
func Headline(p *Prediction) string {
	return "Predicted Total Cost of Attendance: " + p.Formatted
}
