package deps

import (
	"strings"

	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"
)

// ScoreSeverity evaluates raw severity vectors to normalized scalar scores.
// CVSS_V3 vectors (3.0 and 3.1) and CVSS_V4 vectors are scored with their
// respective algorithms; an unparsable vector is skipped, leaving the
// corresponding score unset.
func ScoreSeverity(severity []Severity) SeverityScore {
	var score SeverityScore
	for _, s := range severity {
		switch s.Type {
		case "CVSS_V3":
			if v, ok := scoreV3(s.Score); ok && score.CVSSV3 == nil {
				score.CVSSV3 = &v
			}
		case "CVSS_V4":
			if v, ok := scoreV4(s.Score); ok && score.CVSSV4 == nil {
				score.CVSSV4 = &v
			}
		}
	}
	return score
}

func scoreV3(vector string) (float64, bool) {
	if strings.HasPrefix(vector, "CVSS:3.0") {
		cvss, err := gocvss30.ParseVector(vector)
		if err != nil {
			return 0, false
		}
		return cvss.BaseScore(), true
	}
	cvss, err := gocvss31.ParseVector(vector)
	if err != nil {
		return 0, false
	}
	return cvss.BaseScore(), true
}

func scoreV4(vector string) (float64, bool) {
	cvss, err := gocvss40.ParseVector(vector)
	if err != nil {
		return 0, false
	}
	return cvss.Score(), true
}

// RiskRating maps a normalized CVSS score to the standard qualitative
// rating used for the audit summary counts.
func RiskRating(score float64) string {
	switch {
	case score >= 9:
		return "critical"
	case score >= 7:
		return "high"
	case score >= 4:
		return "medium"
	case score > 0:
		return "low"
	default:
		return "none"
	}
}
