package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	srvErrors "github.com/kubev2v/relcore/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Init fills defaults and builds the column validator chains. It is called by the
// loaders; tables assembled in code must call it before use.
func (t *Table) Init() error {
	if err := defaults.Set(t); err != nil {
		return srvErrors.NewConfigurationError(t.QualifiedName(), "%v", err)
	}
	for _, c := range t.Columns {
		if c == nil {
			continue
		}
		if err := defaults.Set(c); err != nil {
			return srvErrors.NewConfigurationError(t.QualifiedName(), "column %s: %v", c.Name, err)
		}
		c.validators = defaultValidators(c)
	}
	if t.Extension != nil {
		for i := range t.Extension.Properties {
			p := &t.Extension.Properties[i]
			if p.URI == "" {
				p.URI = t.Extension.Domain + "#" + p.Name
			}
		}
	}
	return t.Validate()
}

// Validate reports the first problem that makes the table unusable for writes.
func (t *Table) Validate() error {
	if err := validate.Struct(t); err != nil {
		return srvErrors.NewConfigurationError(t.QualifiedName(), "%s", describeStructError(err))
	}

	seen := make(map[string]struct{}, len(t.Columns))
	var version, autoInc int
	for _, c := range t.Columns {
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			return srvErrors.NewConfigurationError(t.QualifiedName(), "duplicate column %s", c.Name)
		}
		seen[key] = struct{}{}
		if c.Version {
			version++
		}
		if c.AutoIncrement {
			autoInc++
		}
		if c.Validate != "" {
			if err := checkRule(c.Validate); err != nil {
				return srvErrors.NewConfigurationError(t.QualifiedName(), "column %s: %v", c.Name, err)
			}
		}
	}
	if version > 1 {
		return srvErrors.NewConfigurationError(t.QualifiedName(), "more than one version column")
	}
	if autoInc > 1 {
		return srvErrors.NewConfigurationError(t.QualifiedName(), "more than one auto-increment column")
	}

	for _, name := range t.PrimaryKey {
		if !t.HasColumn(name) {
			return srvErrors.NewConfigurationError(t.QualifiedName(), "primary key column %s does not exist", name)
		}
	}
	for from, to := range t.Remap {
		if !t.HasColumn(to) {
			return srvErrors.NewConfigurationError(t.QualifiedName(), "remap %s -> %s: no such column", from, to)
		}
	}

	switch t.Shape {
	case ShapePlain:
		if t.Extension != nil && len(t.Extension.Properties) > 0 {
			return srvErrors.NewConfigurationError(t.QualifiedName(), "extension properties need shape %q", ShapeEAVExtended)
		}
	case ShapeEAVExtended:
		if t.Extension == nil {
			return srvErrors.NewConfigurationError(t.QualifiedName(), "shape %q without an extension", ShapeEAVExtended)
		}
		if t.ObjectURI() == nil {
			return srvErrors.NewConfigurationError(t.QualifiedName(), "shape %q needs an object URI column", ShapeEAVExtended)
		}
		if err := t.Extension.validate(); err != nil {
			return srvErrors.NewConfigurationError(t.QualifiedName(), "%v", err)
		}
	}
	return nil
}

func (e *Extension) validate() error {
	ids := make(map[int64]struct{}, len(e.Properties))
	names := make(map[string]struct{}, len(e.Properties))
	for _, p := range e.Properties {
		if _, ok := p.StorageType(); !ok {
			return fmt.Errorf("property %s: type %s cannot be stored", p.Name, p.Type)
		}
		if _, dup := ids[p.ID]; dup {
			return fmt.Errorf("duplicate property id %d", p.ID)
		}
		ids[p.ID] = struct{}{}
		key := strings.ToLower(p.Name)
		if _, dup := names[key]; dup {
			return fmt.Errorf("duplicate property %s", p.Name)
		}
		names[key] = struct{}{}
	}
	return nil
}

func describeStructError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

// checkRule catches unknown validator tags when the table is loaded rather than on
// the first written row. Var panics on undefined tags.
func checkRule(rule string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid validate rule %q: %v", rule, r)
		}
	}()
	_ = validate.Var("", rule)
	return nil
}
