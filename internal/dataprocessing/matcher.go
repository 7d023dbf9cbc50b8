package dataprocessing

import (
	"regexp"
	"strings"

	"mailpulse/pkg/contracts/domain"
)

// columnPatterns maps each semantic field to the ordered pattern set used
// to recognize header name variants. Declarative by design: adding a new
// header alias is a data change, not a code change.
var columnPatterns = map[domain.Field][]*regexp.Regexp{
	domain.FieldEmailAddress: {
		regexp.MustCompile(`(?i)email`),
		regexp.MustCompile(`(?i)e-?mail address`),
		regexp.MustCompile(`(?i)recipient`),
		regexp.MustCompile(`(?i)subscriber`),
	},
	domain.FieldStatus: {
		regexp.MustCompile(`(?i)status`),
		regexp.MustCompile(`(?i)delivery status`),
		regexp.MustCompile(`(?i)email status`),
		regexp.MustCompile(`(?i)result`),
	},
	domain.FieldOpenTime: {
		regexp.MustCompile(`(?i)open(ed)?[ _-]?(time|date)`),
		regexp.MustCompile(`(?i)time[ _-]?opened`),
		regexp.MustCompile(`(?i)open timestamp`),
	},
	domain.FieldClickTime: {
		regexp.MustCompile(`(?i)click(ed)?[ _-]?(time|date)`),
		regexp.MustCompile(`(?i)time[ _-]?clicked`),
		regexp.MustCompile(`(?i)click timestamp`),
	},
	domain.FieldCampaignName: {
		regexp.MustCompile(`(?i)campaign[ _-]?name`),
		regexp.MustCompile(`(?i)campaign[ _-]?title`),
		regexp.MustCompile(`(?i)campaign[ _-]?id`),
		regexp.MustCompile(`(?i)email[ _-]?campaign`),
	},
	domain.FieldTimestamp: {
		regexp.MustCompile(`(?i)sent[ _-]?(time|date)`),
		regexp.MustCompile(`(?i)timestamp`),
		regexp.MustCompile(`(?i)date[ _-]?sent`),
		regexp.MustCompile(`(?i)time[ _-]?sent`),
	},
	domain.FieldBounceType: {
		regexp.MustCompile(`(?i)bounce[ _-]?type`),
		regexp.MustCompile(`(?i)bounce[ _-]?category`),
		regexp.MustCompile(`(?i)bounce[ _-]?reason`),
	},
	domain.FieldLocation: {
		regexp.MustCompile(`(?i)location`),
		regexp.MustCompile(`(?i)country`),
		regexp.MustCompile(`(?i)region`),
		regexp.MustCompile(`(?i)geo`),
		regexp.MustCompile(`(?i)geography`),
	},
	domain.FieldDevice: {
		regexp.MustCompile(`(?i)device`),
		regexp.MustCompile(`(?i)platform`),
		regexp.MustCompile(`(?i)user[ _-]?agent`),
		regexp.MustCompile(`(?i)browser`),
	},
	domain.FieldSubject: {
		regexp.MustCompile(`(?i)subject`),
		regexp.MustCompile(`(?i)subject[ _-]?line`),
		regexp.MustCompile(`(?i)email[ _-]?subject`),
	},
}

const (
	patternMatchScore = 1
	exactMatchScore   = 3
)

// DetectColumns proposes a best-effort field mapping for the given file
// headers. Each field is scored independently, so a single header may be
// selected for more than one field; the result is a suggestion the caller
// is expected to let the user review before use.
//
// Scoring: each matching pattern adds 1, or 3 when the header equals the
// field name case-insensitively. The strictly highest nonzero score wins,
// ties keep the first header in input order, and an all-zero field stays
// unmapped. Pure function of the header list.
func DetectColumns(headers []string) domain.FieldMapping {
	mapping := make(domain.FieldMapping, len(domain.Fields))

	for _, field := range domain.Fields {
		if best, ok := bestMatch(headers, field); ok {
			mapping[field] = best
		}
	}

	return mapping
}

// bestMatch returns the highest-scoring header for the field, or false when
// no header scores above zero.
func bestMatch(headers []string, field domain.Field) (string, bool) {
	var best string
	highest := 0

	for _, header := range headers {
		score := scoreHeader(header, field)
		if score > highest {
			highest = score
			best = header
		}
	}

	return best, highest > 0
}

// scoreHeader accumulates the header's score for the field across its
// pattern set.
func scoreHeader(header string, field domain.Field) int {
	score := 0
	for _, pattern := range columnPatterns[field] {
		if !pattern.MatchString(header) {
			continue
		}
		if strings.EqualFold(header, string(field)) {
			score += exactMatchScore
		} else {
			score += patternMatchScore
		}
	}
	return score
}
