package container

import (
	"fmt"
	"strings"
)

type Type string

const (
	TypeRoot     Type = "root"
	TypeProject  Type = "project"
	TypeFolder   Type = "folder"
	TypeWorkbook Type = "workbook"
	TypeTab      Type = "tab"
)

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeRoot, TypeProject, TypeFolder, TypeWorkbook, TypeTab:
		return t, nil
	case "":
		return TypeFolder, nil
	}
	return "", fmt.Errorf("unknown container type %q", s)
}

// Container is one node of the container tree. Parent and child links are ids
// resolved through the owning Registry.
type Container struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Type      Type   `yaml:"type"`
	ParentID  string `yaml:"parent"`
	SortOrder int    `yaml:"sortOrder"`

	path string
}

// Path is the slash separated path from the root ("/" for the root itself).
func (c *Container) Path() string { return c.path }

func (c *Container) IsRoot() bool { return c.ParentID == "" }

// IsWorkbook reports whether c is a leaf container living inside a folder.
func (c *Container) IsWorkbook() bool {
	return c.Type == TypeWorkbook || c.Type == TypeTab
}
