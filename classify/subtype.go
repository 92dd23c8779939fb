package classify

import (
	"regexp"
	"strconv"
)

// Sub-type tags. Sub-type detection is a secondary pass over the subject,
// orthogonal to document-type classification.
const (
	SubTypeDraft        = "draft"
	SubTypeAmendment    = "amendment"
	SubTypeCancellation = "cancellation"
	SubTypeOriginal     = "original"
	SubTypeCopy         = "copy"
	SubTypeUpdate       = "update"
)

var subTypeRules = []struct {
	re      *regexp.Regexp
	subType string
}{
	{regexp.MustCompile(`(?i)\bcancel(led|lation)?\b`), SubTypeCancellation},
	{regexp.MustCompile(`(?i)\b(amend(ed|ment)?|revis(ed|ion))\b`), SubTypeAmendment},
	{regexp.MustCompile(`(?i)\bdraft\b`), SubTypeDraft},
	{regexp.MustCompile(`(?i)\boriginal\b`), SubTypeOriginal},
	{regexp.MustCompile(`(?i)\b(copy|duplicate)\b`), SubTypeCopy},
}

var updateRule = regexp.MustCompile(`(?i)\bupdate\s*#?\s*(\d+)\b`)

// DetectSubType inspects the subject for draft/amendment/cancellation/
// original/copy markers, plus the "Update N" idiom carriers use for
// successive booking revisions ("update:3"). Returns "" when no marker
// is present.
func DetectSubType(subject string) string {
	if m := updateRule.FindStringSubmatch(subject); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return SubTypeUpdate + ":" + m[1]
		}
	}

	for _, rule := range subTypeRules {
		if rule.re.MatchString(subject) {
			return rule.subType
		}
	}

	return ""
}
