package container

import (
	"fmt"
	"strings"
	"sync"
)

type Permission uint8

const (
	PermRead Permission = 1 << iota
	PermInsert
	PermUpdate
	PermDelete
	PermAdmin

	PermNone Permission = 0
	PermAll             = PermRead | PermInsert | PermUpdate | PermDelete | PermAdmin
)

var permissionNames = []struct {
	p    Permission
	name string
}{
	{PermRead, "read"},
	{PermInsert, "insert"},
	{PermUpdate, "update"},
	{PermDelete, "delete"},
	{PermAdmin, "admin"},
}

// Has reports whether every bit of q is set in p.
func (p Permission) Has(q Permission) bool {
	return p&q == q
}

func (p Permission) String() string {
	var names []string
	for _, pn := range permissionNames {
		if p&pn.p != 0 {
			names = append(names, pn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParsePermission parses a "|" or "," separated list of permission names.
func ParsePermission(s string) (Permission, error) {
	var p Permission
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "all" {
			p |= PermAll
			continue
		}
		found := false
		for _, pn := range permissionNames {
			if pn.name == part {
				p |= pn.p
				found = true
			}
		}
		if !found {
			return PermNone, fmt.Errorf("unknown permission %q", part)
		}
	}
	return p, nil
}

type User struct {
	ID        int64  `yaml:"id"`
	Name      string `yaml:"name"`
	SiteAdmin bool   `yaml:"siteAdmin"`
}

// Policy answers permission questions for a user on a container.
type Policy interface {
	HasPermission(user *User, containerID string, perm Permission) bool
}

// StaticPolicy is an in-memory grant table. Site admins hold every permission
// everywhere and a nil user holds none.
type StaticPolicy struct {
	mu     sync.RWMutex
	grants map[int64]map[string]Permission
}

var _ Policy = (*StaticPolicy)(nil)

func NewStaticPolicy() *StaticPolicy {
	return &StaticPolicy{grants: make(map[int64]map[string]Permission)}
}

func (p *StaticPolicy) Grant(userID int64, containerID string, perm Permission) *StaticPolicy {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.grants[userID] == nil {
		p.grants[userID] = make(map[string]Permission)
	}
	p.grants[userID][containerID] |= perm
	return p
}

func (p *StaticPolicy) Revoke(userID int64, containerID string, perm Permission) *StaticPolicy {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := p.grants[userID]; ok {
		g[containerID] &^= perm
	}
	return p
}

func (p *StaticPolicy) HasPermission(user *User, containerID string, perm Permission) bool {
	if user == nil {
		return false
	}
	if user.SiteAdmin {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.grants[user.ID][containerID].Has(perm)
}
