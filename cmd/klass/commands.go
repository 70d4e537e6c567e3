package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/chazu/klass/klass"
	"github.com/chazu/klass/snapshot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <subtype> <supertype>",
		Short: "Report whether one type is a subtype of another",
		Long: `Report whether <subtype> is a subtype of <supertype> and which path
answered: self, primary (constant-time slot compare), cache (secondary hit
cache) or secondary (linear scan). Array names such as "Integer[]" are
derived on demand.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			sub, err := s.resolve(args[0])
			if err != nil {
				return err
			}
			super, err := s.resolve(args[1])
			if err != nil {
				return err
			}

			path := s.reg.CheckDescriptors(sub, super)
			out := cmd.OutOrStdout()
			if path.Found() {
				fmt.Fprintf(out, "%s is a subtype of %s (%s)\n", sub.Name(), super.Name(), path)
			} else {
				fmt.Fprintf(out, "%s is not a subtype of %s\n", sub.Name(), super.Name())
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <type>",
		Short: "Display a type's encoded hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			d, err := s.resolve(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Name:\t%s\n", d.Name())
			fmt.Fprintf(w, "ID:\t%d\n", d.ID())
			fmt.Fprintf(w, "Kind:\t%s\n", d.Kind())
			if d.IsArray() {
				fmt.Fprintf(w, "Element:\t%s\n", d.Element().Name())
			}
			if super := d.Super(); super != nil {
				fmt.Fprintf(w, "Super:\t%s\n", super.Name())
			}
			fmt.Fprintf(w, "Depth:\t%d\n", d.Depth())
			if d.IsPrimary() {
				fmt.Fprintf(w, "Anchor:\t%d\n", d.Anchor())
			} else {
				fmt.Fprintf(w, "Anchor:\tsecondary\n")
			}
			fmt.Fprintf(w, "Interfaces:\t%s\n", joinNames(d.Interfaces()))
			fmt.Fprintf(w, "Primary:\t%s\n", joinNames(d.PrimarySupers()))
			fmt.Fprintf(w, "Secondary:\t%s\n", joinNames(d.SecondarySupers()))
			return w.Flush()
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered types in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tNAME\tSUPER")
			for _, d := range s.reg.All() {
				super := "-"
				if d.Super() != nil {
					super = d.Super().Name()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.ID(), d.Kind(), d.Name(), super)
			}
			return w.Flush()
		},
	}
}

func newSnapshotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <file>",
		Short: "Write the registry to a CBOR snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			snap := snapshot.Capture(s.reg)
			if err := snapshot.WriteFile(args[0], snap); err != nil {
				return err
			}
			a.logger.Info("wrote snapshot",
				zap.String("path", args[0]),
				zap.Stringer("id", snap.ID),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d types to %s\n", len(snap.Types), args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Store the manifest's types in the --db definition store",
		Long: `Load the manifest through the loader chain and store every resulting
type that the definition store does not already hold.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.v.GetString(cfgDB) == "" {
				return fmt.Errorf("import requires --db")
			}
			s, err := a.openSession()
			if err != nil {
				return err
			}
			if s.manifest == nil {
				return fmt.Errorf("import requires a manifest")
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			added, err := st.PutRegistry(s.reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d types into %s\n", added, st.Path())
			return nil
		},
	}
}

func joinNames(ds []*klass.Descriptor) string {
	if len(ds) == 0 {
		return "-"
	}
	return strings.Join(klass.Names(ds), ", ")
}
