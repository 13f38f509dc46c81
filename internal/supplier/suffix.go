package supplier

import "regexp"

// Applied in this order on every pass.
var corporateSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i) PROPRIETARY$`),
	regexp.MustCompile(`(?i) P\.?T\.?Y\.?$`),
	regexp.MustCompile(`(?i) LIMITED$`),
	regexp.MustCompile(`(?i) L\.?T\.?D\.?$`),
}

// StripCorporateSuffixes removes trailing company-type designators such as
// " PTY LTD" or " Limited". Each pass applies every pattern once, and passes
// repeat until the name stops changing, so the result is a fixed point.
func StripCorporateSuffixes(name string) string {
	for {
		previous := name
		for _, pattern := range corporateSuffixes {
			name = pattern.ReplaceAllString(name, "")
		}
		if name == previous {
			return name
		}
	}
}
