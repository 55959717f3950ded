package scope

import (
	"fmt"
	"strings"

	"github.com/kubev2v/relcore/pkg/container"
)

// Type names a scope strategy. Each Type is a factory for resolvers bound to an anchor
// container and a user.
type Type int

const (
	Current Type = iota
	CurrentWithUser
	CurrentAndSubfolders
	CurrentAndSiblings
	CurrentAndParents
	Project
	CurrentPlusProject
	CurrentPlusProjectAndShared
	WorkbookAndParent
	AllFolders
	AllInProject
)

var typeNames = []string{
	Current:                     "Current",
	CurrentWithUser:             "CurrentWithUser",
	CurrentAndSubfolders:        "CurrentAndSubfolders",
	CurrentAndSiblings:          "CurrentAndSiblings",
	CurrentAndParents:           "CurrentAndParents",
	Project:                     "Project",
	CurrentPlusProject:          "CurrentPlusProject",
	CurrentPlusProjectAndShared: "CurrentPlusProjectAndShared",
	WorkbookAndParent:           "WorkbookAndParent",
	AllFolders:                  "AllFolders",
	AllInProject:                "AllInProject",
}

// Types returns every strategy in declaration order.
func Types() []Type {
	out := make([]Type, len(typeNames))
	for i := range typeNames {
		out[i] = Type(i)
	}
	return out
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType accepts a strategy name in any case.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scope type %q", s)
}

// New builds a resolver of type t. It is a shorthand for New(t, anchor, user, env).
func (t Type) New(anchor *container.Container, user *container.User, env Env) (*Resolver, error) {
	return New(t, anchor, user, env)
}

// IncludedChildTypes are the container types that are implicitly visible when their
// parent is in scope. Strategies that already enumerate descendants include none.
func (t Type) IncludedChildTypes() []container.Type {
	switch t {
	case Current, CurrentWithUser, CurrentAndSiblings, CurrentAndParents,
		Project, CurrentPlusProject, CurrentPlusProjectAndShared:
		return []container.Type{container.TypeWorkbook}
	}
	return nil
}
