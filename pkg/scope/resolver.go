package scope

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/kubev2v/relcore/pkg/container"
	srvErrors "github.com/kubev2v/relcore/pkg/errors"
)

const (
	DefaultHierarchyTable  = "core.containers"
	DefaultInListThreshold = 100
)

// Env carries the collaborators a resolver reads from.
type Env struct {
	Registry *container.Registry
	Policy   container.Policy
	// Permission is what the user needs on a container for it to be visible.
	// Zero means read.
	Permission container.Permission
	// InListThreshold is the id count above which ids are embedded as a VALUES table
	// instead of one parameter each.
	InListThreshold int
	HierarchyTable  string
}

func (e Env) withDefaults() Env {
	if e.Policy == nil {
		e.Policy = container.NewStaticPolicy()
	}
	if e.Permission == container.PermNone {
		e.Permission = container.PermRead
	}
	if e.InListThreshold <= 0 {
		e.InListThreshold = DefaultInListThreshold
	}
	if e.HierarchyTable == "" {
		e.HierarchyTable = DefaultHierarchyTable
	}
	return e
}

// Resolution is the outcome of a scope. Unrestricted means every container is
// visible and IDs is nil; otherwise IDs lists the visible containers, possibly none.
type Resolution struct {
	Unrestricted bool
	IDs          []string
}

func (r Resolution) IsEmpty() bool {
	return !r.Unrestricted && len(r.IDs) == 0
}

// Contains reports whether id is visible.
func (r Resolution) Contains(id string) bool {
	if r.Unrestricted {
		return true
	}
	for _, v := range r.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Resolver answers "which containers are visible" for one strategy, anchor and user.
// The answer is computed once per instance.
type Resolver struct {
	typ    Type
	anchor *container.Container
	user   *container.User
	env    Env
	gen    generator

	once          sync.Once
	resolution    Resolution
	joinsChildren bool
}

func New(t Type, anchor *container.Container, user *container.User, env Env) (*Resolver, error) {
	gen, ok := generators[t]
	if !ok {
		return nil, srvErrors.NewConfigurationError("", "unknown scope type %s", t)
	}
	if env.Registry == nil {
		return nil, srvErrors.NewConfigurationError("", "scope %s has no container registry", t)
	}
	if anchor == nil {
		return nil, srvErrors.NewConfigurationError("", "scope %s has no anchor container", t)
	}
	return &Resolver{
		typ:    t,
		anchor: anchor,
		user:   user,
		env:    env.withDefaults(),
		gen:    gen,
	}, nil
}

func (r *Resolver) Type() Type { return r.typ }

func (r *Resolver) Anchor() *container.Container { return r.anchor }

func (r *Resolver) User() *container.User { return r.user }

func (r *Resolver) IncludedChildTypes() []container.Type { return r.typ.IncludedChildTypes() }

// CacheKey identifies the resolution for one policy: two resolvers with the same key
// and policy always resolve to the same containers.
func (r *Resolver) CacheKey() string {
	user := "-"
	if r.user != nil {
		user = strconv.FormatInt(r.user.ID, 10)
		if r.user.SiteAdmin {
			user += "+admin"
		}
	}
	return fmt.Sprintf("%s/%s/%s/%s", r.typ, r.anchor.ID, user, r.env.Permission)
}

// IDs resolves the scope. The first successful call computes the answer and every
// later call on the same resolver returns it.
func (r *Resolver) IDs(ctx context.Context) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	r.once.Do(func() {
		r.resolution = r.gen(r)
		r.joinsChildren = r.hasIncludedChildren()
		zap.S().Named("scope").Debugw("scope resolved",
			"key", r.CacheKey(),
			"unrestricted", r.resolution.Unrestricted,
			"count", len(r.resolution.IDs),
			"join", r.joinsChildren)
	})
	return r.resolution, nil
}

func (r *Resolver) hasIncludedChildren() bool {
	types := r.IncludedChildTypes()
	if len(types) == 0 || r.resolution.Unrestricted {
		return false
	}
	for _, id := range r.resolution.IDs {
		c, err := r.env.Registry.Get(id)
		if err != nil {
			continue
		}
		if r.env.Registry.HasChildOfType(c, types) {
			return true
		}
	}
	return false
}

func (r *Resolver) permitted(c *container.Container) bool {
	return c != nil && r.env.Policy.HasPermission(r.user, c.ID, r.env.Permission)
}

func (r *Resolver) blanket() bool {
	return r.user != nil && r.user.SiteAdmin
}
