package domain

import "strings"

// ProjectType is the closed set of project kinds a visitor can pick.
type ProjectType string

const (
	ProjectWeb    ProjectType = "web"
	ProjectMobile ProjectType = "mobile"
	ProjectBoth   ProjectType = "both"
)

// ParseProjectType normalizes s (trim + lower-case) and reports whether it
// names a known project type.
func ParseProjectType(s string) (ProjectType, bool) {
	switch pt := ProjectType(strings.ToLower(strings.TrimSpace(s))); pt {
	case ProjectWeb, ProjectMobile, ProjectBoth:
		return pt, true
	}
	return "", false
}

// Label is the human-facing name used in chat drafts.
func (p ProjectType) Label() string {
	switch p {
	case ProjectWeb:
		return "Web"
	case ProjectMobile:
		return "Mobile"
	case ProjectBoth:
		return "Web + Mobile"
	}
	return ""
}

// Lead is a validated, size-capped contact form submission. It lives only for
// the duration of the request that produced it.
type Lead struct {
	Name     string
	Contact  string
	Message  string
	Timeline string
	Budget   string

	// ProjectType is empty when the visitor sent nothing recognizable.
	ProjectType ProjectType
	// UTM and Attribution are nil when the payload carried no object.
	UTM         Pairs
	Attribution Pairs

	ClientID string
	Locale   Locale
}

// Delivered reports per-channel delivery outcome of a submission.
type Delivered struct {
	Telegram bool `json:"telegram"`
	Email    bool `json:"email"`
}

// Any reports whether at least one channel delivered.
func (d Delivered) Any() bool { return d.Telegram || d.Email }
