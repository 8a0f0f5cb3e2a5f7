package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"oaiagents/internal/checkpoint"
)

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect agent checkpoints",
	}
	var asJSON bool
	inspect := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print the metadata of an agent checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			rec, err := checkpoint.Inspect(argv[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				rec.StateDict = nil
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			fmt.Fprintf(out, "id=%s type=%s name=%s encoding=%s\n",
				rec.ID, rec.AgentType, rec.ConstParams.Name, rec.ConstParams.EncodingFn)
			fmt.Fprintf(out, "device=%s layout=%s seed=%d saved_at=%s\n",
				rec.Args.Device, rec.Args.LayoutName, rec.Args.Seed, rec.SavedAt.Format("2006-01-02T15:04:05Z07:00"))
			names := make([]string, 0, len(rec.StateDict))
			for name := range rec.StateDict {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "param %s shape=%v\n", name, rec.StateDict[name].Shape)
			}
			return nil
		},
	}
	inspect.Flags().BoolVar(&asJSON, "json", false, "print the record as JSON without weights")

	types := &cobra.Command{
		Use:   "types",
		Short: "List the agent types a checkpoint may name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, tag := range checkpoint.ListTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}
	cmd.AddCommand(inspect, types)
	return cmd
}
