package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kubev2v/relcore/internal/config"
	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/scope"
)

type scopeOptions struct {
	typ        string
	anchor     string
	userID     int64
	siteAdmin  bool
	permission string
	grants     []string
	containers string
	column     string
}

func NewScopeCommand(cfg *config.Configuration) *cobra.Command {
	opts := &scopeOptions{}

	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Resolve the containers a scope makes visible",
		Long: `Load the container hierarchy from the database, resolve a scope strategy
from an anchor container for a user and print the visible container ids and the
WHERE fragment restricting a container column to them.

--containers seeds the hierarchy from a YAML file first, --grant gives the user
permissions as "<user>:<container id or path>:<permissions>".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScope(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.typ, "type", scope.Current.String(), "scope strategy")
	cmd.Flags().StringVar(&opts.anchor, "anchor", "/", "anchor container id or path")
	cmd.Flags().Int64Var(&opts.userID, "user", 0, "user id")
	cmd.Flags().BoolVar(&opts.siteAdmin, "site-admin", false, "the user is a site administrator")
	cmd.Flags().StringVar(&opts.permission, "permission", "read", "permission required on visible containers")
	cmd.Flags().StringArrayVar(&opts.grants, "grant", nil, "permission grant <user>:<container>:<permissions>, repeatable")
	cmd.Flags().StringVar(&opts.containers, "containers", "", "YAML file of containers saved before resolving")
	cmd.Flags().StringVar(&opts.column, "column", "Container", "container column of the WHERE fragment")
	cmd.Flags().IntVar(&cfg.Scope.InListThreshold, "in-list-threshold", cfg.Scope.InListThreshold, "id count above which ids are embedded as a VALUES table")
	return cmd
}

func runScope(cmd *cobra.Command, cfg *config.Configuration, opts *scopeOptions) error {
	ctx := cmd.Context()

	typ, err := scope.ParseType(opts.typ)
	if err != nil {
		return err
	}
	perm, err := container.ParsePermission(opts.permission)
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.containers != "" {
		seed, err := loadContainers(opts.containers)
		if err != nil {
			return err
		}
		if err := s.Containers().SaveAll(ctx, seed); err != nil {
			return err
		}
	}

	reg, err := s.Containers().Load(ctx)
	if err != nil {
		return err
	}
	anchor, err := reg.Lookup(opts.anchor)
	if err != nil {
		return err
	}
	policy, err := parseGrants(reg, opts.grants)
	if err != nil {
		return err
	}

	var user *container.User
	if opts.userID > 0 || opts.siteAdmin {
		user = &container.User{ID: opts.userID, SiteAdmin: opts.siteAdmin}
	}

	r, err := typ.New(anchor, user, scope.Env{
		Registry:        reg,
		Policy:          policy,
		Permission:      perm,
		InListThreshold: cfg.Scope.InListThreshold,
		HierarchyTable:  cfg.Scope.HierarchyTable,
	})
	if err != nil {
		return err
	}
	res, err := r.IDs(ctx)
	if err != nil {
		return err
	}
	frag, err := r.SQLFragment(ctx, s.Dialect(), opts.column)
	if err != nil {
		return err
	}
	where, err := frag.Format(s.Dialect().PlaceholderFormat())
	if err != nil {
		return err
	}

	return printResolution(cmd.OutOrStdout(), reg, res, where, frag.Params())
}

func printResolution(w io.Writer, reg *container.Registry, res scope.Resolution, where string, params []any) error {
	switch {
	case res.Unrestricted:
		fmt.Fprintln(w, "containers: all")
	default:
		fmt.Fprintf(w, "containers: %d\n", len(res.IDs))
		for _, id := range res.IDs {
			path := "?"
			if c, err := reg.Get(id); err == nil {
				path = c.Path()
			}
			fmt.Fprintf(w, "  %s %s\n", id, path)
		}
	}
	fmt.Fprintf(w, "where: %s\n", where)
	fmt.Fprintf(w, "params: %v\n", params)
	return nil
}

func parseGrants(reg *container.Registry, grants []string) (*container.StaticPolicy, error) {
	policy := container.NewStaticPolicy()
	for _, g := range grants {
		parts := strings.SplitN(g, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid grant %q: want <user>:<container>:<permissions>", g)
		}
		userID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid grant %q: %w", g, err)
		}
		c, err := reg.Lookup(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid grant %q: %w", g, err)
		}
		perm, err := container.ParsePermission(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid grant %q: %w", g, err)
		}
		policy.Grant(userID, c.ID, perm)
	}
	return policy, nil
}
