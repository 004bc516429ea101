package ocr

import "regexp"

var (
	labeledReference = regexp.MustCompile(`(?i)(?:UTR(?:\s*(?:no|number|id))?|UPI\s*(?:ref(?:erence)?|transaction)\s*(?:no|number|id)?|transaction\s*id|txn\s*id|ref(?:erence)?\s*(?:no|number))\.?\s*[:#-]?\s*(\d{12})\b`)
	bareReference    = regexp.MustCompile(`\b(\d{12})\b`)
)

// FindReference looks for a labeled 12-digit reference first and falls back to the first bare
// 12-digit run. labeled reports which of the two matched.
func FindReference(text string) (candidate string, labeled bool, ok bool) {
	if m := labeledReference.FindStringSubmatch(text); m != nil {
		return m[1], true, true
	}
	if m := bareReference.FindStringSubmatch(text); m != nil {
		return m[1], false, true
	}
	return "", false, false
}
