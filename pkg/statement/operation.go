package statement

import (
	"fmt"
	"strings"

	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/schema"
)

type Operation int

const (
	Insert Operation = iota
	Update
	Merge
)

func (o Operation) String() string {
	switch o {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Merge:
		return "merge"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insert":
		return Insert, nil
	case "update":
		return Update, nil
	case "merge", "upsert":
		return Merge, nil
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

// Options tune a compilation.
type Options struct {
	// Container, when set, is embedded as a literal in every container reference.
	// Otherwise the container id is bound per row from the "container" field.
	Container *container.Container
	// User fills the Owner, CreatedBy and ModifiedBy audit columns.
	User *container.User
	// SelectIDs reselects the auto-increment value and the object id.
	SelectIDs bool
	// SelectObjectURI reselects the object URI of extended rows.
	SelectObjectURI bool
	// AutoFillDefaultColumns populates the builtin audit columns.
	AutoFillDefaultColumns bool
	// AllowAutoIncrement writes the auto-increment column like any other.
	AllowAutoIncrement bool
	// Keys overrides the key columns of UPDATE and MERGE.
	Keys []string
	// Skip lists columns and properties that are never written.
	Skip []string
	// VocabularyProperties are ad-hoc properties stored next to the table's own.
	VocabularyProperties []schema.Property
	// Constants are column values embedded as literals instead of bound.
	Constants map[string]any
	// ObjectURIGenerator makes the URI of new extended rows that do not carry one.
	ObjectURIGenerator func() string
}

func (o Options) skips(name string) bool {
	for _, s := range o.Skip {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

func (o Options) constant(name string) (any, bool) {
	for k, v := range o.Constants {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}
