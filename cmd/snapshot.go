package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmmoran/proxytype/pkg/action/snapshot"
)

func init() {
	rootCmd.AddCommand(NewSnapshotCommand())
}

func NewSnapshotCommand() *cobra.Command {
	var manifestPath string

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "manage emitted snapshots",
		Long:  "Emit versioned snapshots of the proxy types and compare them",
	}
	snapshotCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "proxytype.manifest.yaml", "manifest tracking snapshots")

	var name string
	createCmd := &cobra.Command{
		Use:     "create VERSION",
		Short:   "emit and record a snapshot",
		Args:    cobra.ExactArgs(1),
		PreRunE: bindFlags,
		RunE: func(c *cobra.Command, args []string) error {
			options, err := emitOptions()
			if err != nil {
				return err
			}
			s, err := snapshot.Generate(c.Context(), options, manifestPath, name, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.OutOrStdout(), "%s %s: %d types in %s\n", s.Name, s.Version, len(s.Types), s.Dir)
			return err
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "proxies", "snapshot name")
	addEmitFlags(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded snapshots",
		RunE: func(c *cobra.Command, args []string) error {
			m, err := snapshot.List(manifestPath)
			if err != nil {
				return err
			}
			for _, s := range m.Snapshots {
				marker := " "
				switch s.Version {
				case m.CurrentVersion:
					marker = "*"
				case m.PreviousVersion:
					marker = "-"
				}
				if _, err := fmt.Fprintf(c.OutOrStdout(), "%s %s\t%s\t%d types\n", marker, s.Version, s.Name, len(s.Types)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "diff the current snapshot against the previous one",
		RunE: func(c *cobra.Command, args []string) error {
			diff, err := snapshot.DiffCurrentWithPrevious(manifestPath)
			if err != nil {
				return err
			}
			if diff == "" {
				diff = "no changes\n"
			}
			_, err = fmt.Fprint(c.OutOrStdout(), diff)
			return err
		},
	}

	snapshotCmd.AddCommand(createCmd, listCmd, diffCmd)
	return snapshotCmd
}
