package container

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	srvErrors "github.com/kubev2v/relcore/pkg/errors"
)

// SharedProjectName is the name of the project whose contents are visible from every
// other project.
const SharedProjectName = "Shared"

// Registry owns every loaded container. Containers reference each other by id and
// the registry resolves those ids, so there are no pointer cycles between nodes.
type Registry struct {
	mu       sync.RWMutex
	nodes    []*Container
	byID     map[string]int
	byPath   map[string]int
	children map[string][]int
	root     int
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]int),
		byPath:   make(map[string]int),
		children: make(map[string][]int),
		root:     -1,
	}
}

// Add registers c. The parent must be registered first; a container without a parent
// becomes the root and there can be only one.
func (r *Registry) Add(c Container) (*Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		return nil, fmt.Errorf("container has no id")
	}
	if _, ok := r.byID[c.ID]; ok {
		return nil, fmt.Errorf("container %s already registered", c.ID)
	}

	if c.ParentID == "" {
		if r.root >= 0 {
			return nil, fmt.Errorf("container %s has no parent but root %s exists", c.ID, r.nodes[r.root].ID)
		}
		c.Type = TypeRoot
		c.path = "/"
	} else {
		pi, ok := r.byID[c.ParentID]
		if !ok {
			return nil, srvErrors.NewContainerNotFoundError(c.ParentID)
		}
		parent := r.nodes[pi]
		if parent.path == "/" {
			c.path = "/" + c.Name
		} else {
			c.path = parent.path + "/" + c.Name
		}
		if c.Type == "" {
			c.Type = TypeFolder
		}
	}
	if _, ok := r.byPath[strings.ToLower(c.path)]; ok {
		return nil, fmt.Errorf("container path %s already registered", c.path)
	}

	node := &c
	idx := len(r.nodes)
	r.nodes = append(r.nodes, node)
	r.byID[c.ID] = idx
	r.byPath[strings.ToLower(c.path)] = idx
	if c.ParentID == "" {
		r.root = idx
	} else {
		r.children[c.ParentID] = append(r.children[c.ParentID], idx)
	}
	return node, nil
}

func (r *Registry) Get(id string) (*Container, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx, ok := r.byID[id]; ok {
		return r.nodes[idx], nil
	}
	return nil, srvErrors.NewContainerNotFoundError(id)
}

// ByPath looks a container up by path, ignoring case and a trailing slash.
func (r *Registry) ByPath(path string) (*Container, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(path)
	if len(key) > 1 {
		key = strings.TrimSuffix(key, "/")
	}
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	if idx, ok := r.byPath[key]; ok {
		return r.nodes[idx], nil
	}
	return nil, srvErrors.NewContainerNotFoundError(path)
}

// Lookup accepts an id or a path.
func (r *Registry) Lookup(idOrPath string) (*Container, error) {
	if c, err := r.Get(idOrPath); err == nil {
		return c, nil
	}
	return r.ByPath(idOrPath)
}

func (r *Registry) Root() *Container {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.root < 0 {
		return nil
	}
	return r.nodes[r.root]
}

// Parent returns nil for the root.
func (r *Registry) Parent(c *Container) *Container {
	if c == nil || c.ParentID == "" {
		return nil
	}
	p, err := r.Get(c.ParentID)
	if err != nil {
		return nil
	}
	return p
}

// Children returns the direct children of c ordered by sort order and name.
func (r *Registry) Children(c *Container) []*Container {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idxs := r.children[c.ID]
	out := make([]*Container, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, r.nodes[idx])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Descendants returns every container below c, depth first, excluding c.
func (r *Registry) Descendants(c *Container) []*Container {
	var out []*Container
	for _, child := range r.Children(c) {
		out = append(out, child)
		out = append(out, r.Descendants(child)...)
	}
	return out
}

// Ancestors returns the parents of c from the nearest up to the root.
func (r *Registry) Ancestors(c *Container) []*Container {
	var out []*Container
	for p := r.Parent(c); p != nil; p = r.Parent(p) {
		out = append(out, p)
	}
	return out
}

// Project returns the top level container c lives in, nil for the root.
func (r *Registry) Project(c *Container) *Container {
	if c == nil || c.IsRoot() {
		return nil
	}
	for {
		p := r.Parent(c)
		if p == nil || p.IsRoot() {
			return c
		}
		c = p
	}
}

// Shared returns the shared project, nil when there is none.
func (r *Registry) Shared() *Container {
	c, err := r.ByPath("/" + SharedProjectName)
	if err != nil {
		return nil
	}
	return c
}

// HasChildOfType reports whether c has at least one direct child of one of types.
func (r *Registry) HasChildOfType(c *Container, types []Type) bool {
	for _, child := range r.Children(c) {
		for _, t := range types {
			if child.Type == t {
				return true
			}
		}
	}
	return false
}

// All returns every container in registration order.
func (r *Registry) All() []*Container {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Container, len(r.nodes))
	copy(out, r.nodes)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}
