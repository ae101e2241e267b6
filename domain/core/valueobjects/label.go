package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	pkgerrors "careerflow/pkg/errors"
)

// NormalizeLabel trims a user supplied label and checks it against the length limit.
// A maxLength of zero disables the limit.
func NormalizeLabel(raw string, maxLength int) (string, error) {
	label := strings.TrimSpace(raw)
	if label == "" {
		return "", pkgerrors.NewInvalidLabelError("label cannot be empty")
	}
	if maxLength > 0 && utf8.RuneCountInString(label) > maxLength {
		return "", pkgerrors.NewInvalidLabelError(
			fmt.Sprintf("label exceeds maximum length of %d characters", maxLength))
	}
	return label, nil
}

// LabelKey is the comparison key used for sibling uniqueness and ordering
func LabelKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// VersionLabel renders the display label of a tailored resume version
func VersionLabel(version int) string {
	return fmt.Sprintf("Version %d", version)
}
