// Package scope turns "which containers may this user see from here" into either an
// explicit list of container ids or a SQL restriction on a container id column.
//
// A scope is chosen by Type and bound to an anchor container and a user:
//
//	r, err := scope.CurrentAndSubfolders.New(anchor, user, scope.Env{Registry: reg, Policy: policy})
//	where, err := r.SQLFragment(ctx, dialect.NewPostgres(), "t.container")
//
// Site administrators looking at every folder get an unrestricted scope, rendered as
// 1=1. A scope with no visible container renders as 1=0. Workbooks are not listed by
// the narrow strategies; instead their rows are reached through a sub-select on the
// container table when at least one resolved container actually has a workbook.
package scope
