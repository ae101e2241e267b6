package entities

import (
	"fmt"

	pkgerrors "careerflow/pkg/errors"
)

// Kind is the node type. It is fixed at creation.
type Kind string

const (
	KindBase     Kind = "base"
	KindCompany  Kind = "company"
	KindRole     Kind = "role"
	KindTailored Kind = "tailored"
)

// ParseKind validates a kind received from outside the domain
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown node type %q", s))
	}
	return k, nil
}

// Valid reports whether k is one of the four node kinds
func (k Kind) Valid() bool {
	switch k {
	case KindBase, KindCompany, KindRole, KindTailored:
		return true
	default:
		return false
	}
}

// ChildKind returns the kind of the nodes this kind owns.
// Tailored nodes are leaves.
func (k Kind) ChildKind() (Kind, bool) {
	switch k {
	case KindBase:
		return KindCompany, true
	case KindCompany:
		return KindRole, true
	case KindRole:
		return KindTailored, true
	default:
		return "", false
	}
}

// ParentKind is the inverse of ChildKind
func (k Kind) ParentKind() (Kind, bool) {
	switch k {
	case KindCompany:
		return KindBase, true
	case KindRole:
		return KindCompany, true
	case KindTailored:
		return KindRole, true
	default:
		return "", false
	}
}

func (k Kind) String() string { return string(k) }
