package scope

import "github.com/kubev2v/relcore/pkg/container"

type generator func(r *Resolver) Resolution

var generators = map[Type]generator{
	Current:                     current,
	CurrentWithUser:             currentWithUser,
	CurrentAndSubfolders:        currentAndSubfolders,
	CurrentAndSiblings:          currentAndSiblings,
	CurrentAndParents:           currentAndParents,
	Project:                     project,
	CurrentPlusProject:          currentPlusProject,
	CurrentPlusProjectAndShared: currentPlusProjectAndShared,
	WorkbookAndParent:           workbookAndParent,
	AllFolders:                  allFolders,
	AllInProject:                allInProject,
}

// idSet keeps insertion order and drops duplicates.
type idSet struct {
	seen map[string]struct{}
	ids  []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{}), ids: []string{}}
}

func (s *idSet) add(cs ...*container.Container) *idSet {
	for _, c := range cs {
		if c == nil {
			continue
		}
		if _, ok := s.seen[c.ID]; ok {
			continue
		}
		s.seen[c.ID] = struct{}{}
		s.ids = append(s.ids, c.ID)
	}
	return s
}

func (s *idSet) resolution() Resolution {
	return Resolution{IDs: s.ids}
}

// addPermitted adds the containers of cs the user holds the scope permission on.
func (s *idSet) addPermitted(r *Resolver, cs ...*container.Container) *idSet {
	for _, c := range cs {
		if r.permitted(c) {
			s.add(c)
		}
	}
	return s
}

func current(r *Resolver) Resolution {
	return newIDSet().add(r.anchor).resolution()
}

func currentWithUser(r *Resolver) Resolution {
	return newIDSet().addPermitted(r, r.anchor).resolution()
}

func currentAndSubfolders(r *Resolver) Resolution {
	if r.blanket() && r.anchor.IsRoot() {
		return Resolution{Unrestricted: true}
	}
	return newIDSet().
		addPermitted(r, r.anchor).
		addPermitted(r, r.env.Registry.Descendants(r.anchor)...).
		resolution()
}

func currentAndSiblings(r *Resolver) Resolution {
	s := newIDSet().add(r.anchor)
	parent := r.env.Registry.Parent(r.anchor)
	if parent == nil {
		return s.resolution()
	}
	return s.addPermitted(r, r.env.Registry.Children(parent)...).resolution()
}

// currentAndParents walks up to, but not including, the root.
func currentAndParents(r *Resolver) Resolution {
	s := newIDSet().add(r.anchor)
	for _, p := range r.env.Registry.Ancestors(r.anchor) {
		if p.IsRoot() {
			break
		}
		s.addPermitted(r, p)
	}
	return s.resolution()
}

func project(r *Resolver) Resolution {
	return newIDSet().addPermitted(r, r.env.Registry.Project(r.anchor)).resolution()
}

func currentPlusProject(r *Resolver) Resolution {
	return newIDSet().
		add(r.anchor).
		addPermitted(r, r.env.Registry.Project(r.anchor)).
		resolution()
}

func currentPlusProjectAndShared(r *Resolver) Resolution {
	return newIDSet().
		add(r.anchor).
		addPermitted(r, r.env.Registry.Project(r.anchor), r.env.Registry.Shared()).
		resolution()
}

func workbookAndParent(r *Resolver) Resolution {
	s := newIDSet().add(r.anchor)
	if r.anchor.IsWorkbook() {
		s.addPermitted(r, r.env.Registry.Parent(r.anchor))
	}
	return s.resolution()
}

func allFolders(r *Resolver) Resolution {
	if r.blanket() {
		return Resolution{Unrestricted: true}
	}
	return newIDSet().addPermitted(r, r.env.Registry.All()...).resolution()
}

func allInProject(r *Resolver) Resolution {
	top := r.env.Registry.Project(r.anchor)
	if top == nil {
		// Anchored at the root there is no single project, every folder qualifies.
		return allFolders(r)
	}
	return newIDSet().
		addPermitted(r, top).
		addPermitted(r, r.env.Registry.Descendants(top)...).
		resolution()
}
