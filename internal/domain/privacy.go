package domain

import "fmt"

// PrivacyLevel is the sharing state of an annotation.
// Levels are ordered; cascade rules compare against thresholds rather than exact values.
type PrivacyLevel int

const (
	// PrivacyPrivate is visible only to the owner and in no shared list.
	PrivacyPrivate PrivacyLevel = 0
	// PrivacyProtected is private but kept in whatever shared lists it was explicitly added to.
	PrivacyProtected PrivacyLevel = 100
	// PrivacyShared is public and inherits every shared list of its page.
	PrivacyShared PrivacyLevel = 200
	// PrivacySharedProtected is public and exempt from bulk privacy changes.
	PrivacySharedProtected PrivacyLevel = 300
)

// IsShared reports whether the level is at or above the shared threshold.
func (p PrivacyLevel) IsShared() bool {
	return p >= PrivacyShared
}

// String implements fmt.Stringer.
func (p PrivacyLevel) String() string {
	switch p {
	case PrivacyPrivate:
		return "private"
	case PrivacyProtected:
		return "protected"
	case PrivacyShared:
		return "shared"
	case PrivacySharedProtected:
		return "shared-protected"
	default:
		return fmt.Sprintf("privacy(%d)", int(p))
	}
}

// PrivacyLevelFromShareOpts maps the local store's share flags onto a privacy level.
func PrivacyLevelFromShareOpts(shouldShare, isBulkShareProtected bool) PrivacyLevel {
	switch {
	case shouldShare && isBulkShareProtected:
		return PrivacySharedProtected
	case shouldShare:
		return PrivacyShared
	case isBulkShareProtected:
		return PrivacyProtected
	default:
		return PrivacyPrivate
	}
}
