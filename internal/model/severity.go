package model

// Severity ranks how urgently an issue should be fixed.
// It is used for report grouping only and never changes which issues are emitted.
type Severity int

const (
	// SeverityInfo is content hygiene with no user-facing breakage.
	SeverityInfo Severity = iota

	// SeverityLow is a cosmetic or SEO problem.
	SeverityLow

	// SeverityMedium is a link policy violation.
	SeverityMedium

	// SeverityHigh is a page or link that does not work for visitors.
	SeverityHigh
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// KindInfo contains metadata about an issue kind.
type KindInfo struct {
	Severity       Severity
	Recommendation string
}

var kindInfoMapping = map[IssueKind]KindInfo{
	MissingDescription: {
		Severity:       SeverityLow,
		Recommendation: "Fill in the SEO description for the page in the CMS.",
	},
	Page404: {
		Severity:       SeverityHigh,
		Recommendation: "Restore the page or redirect its URL to the replacement content.",
	},
	FetchFailed: {
		Severity:       SeverityHigh,
		Recommendation: "Check that the page is reachable and the credentials are valid, then re-run the audit.",
	},
	AbsoluteLinkDevProd: {
		Severity:       SeverityMedium,
		Recommendation: "Replace the staging host with a relative link so it works in every environment.",
	},
	AbsoluteLinkBlockedHost: {
		Severity:       SeverityMedium,
		Recommendation: "Link to the page with a relative URL instead of the organisation's absolute domain.",
	},
	BrokenLink: {
		Severity:       SeverityHigh,
		Recommendation: "Fix the link target or remove the link.",
	},
	PlaceholderText: {
		Severity:       SeverityInfo,
		Recommendation: "Replace the filler text with final copy before publishing.",
	},
}

// GetKindInfo returns the metadata for an issue kind.
// Unknown kinds get SeverityInfo and no recommendation.
func GetKindInfo(kind IssueKind) KindInfo {
	if info, ok := kindInfoMapping[kind]; ok {
		return info
	}
	return KindInfo{Severity: SeverityInfo}
}

// GetSeverity returns the severity level for an issue kind.
func GetSeverity(kind IssueKind) Severity {
	return GetKindInfo(kind).Severity
}
