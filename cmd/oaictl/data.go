package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"oaiagents/internal/gridworld"
	"oaiagents/internal/storage"
)

func newCombineCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "combine",
		Short: "Merge every persisted trial of the layout into one log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			args, err := global.args(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, args, newLogger(cmd, args))
			if err != nil {
				return err
			}
			defer func() {
				_ = storage.CloseIfSupported(store)
			}()

			all, err := storage.Combine(ctx, store, args.LayoutName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Combined %s has %d transitions over %d trials\n",
				args.LayoutName, len(all), len(all.TrialIDs()))
			return nil
		},
	}
}

func newFixLayoutsCmd(global *globalOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "fix-layouts",
		Short: "Rewrite stored trials in the current encoding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			args, err := global.args(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, args, newLogger(cmd, args))
			if err != nil {
				return err
			}
			defer func() {
				_ = storage.CloseIfSupported(store)
			}()

			layouts := []string{args.LayoutName}
			if all {
				fs, ok := store.(*storage.FileStore)
				if !ok {
					return fmt.Errorf("--all needs the file store, got %s", args.Store)
				}
				if layouts, err = fs.Layouts(); err != nil {
					return err
				}
			}
			for _, layout := range layouts {
				n, err := storage.Rewrite(ctx, store, layout)
				if err != nil {
					return fmt.Errorf("rewrite %s: %w", layout, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: rewrote %d trials\n", layout, n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "rewrite every layout found in the data directory")
	return cmd
}

func newTrialsCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trials",
		Short: "List persisted trial ids of the layout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			args, err := global.args(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, args, newLogger(cmd, args))
			if err != nil {
				return err
			}
			defer func() {
				_ = storage.CloseIfSupported(store)
			}()

			ids, err := store.TrialIDs(ctx, args.LayoutName)
			if err != nil {
				return err
			}
			next, err := storage.NextTrialID(ctx, store, args.LayoutName)
			if err != nil {
				return err
			}
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = fmt.Sprint(id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "layout=%s trials=[%s] next=%d\n", args.LayoutName, strings.Join(parts, ","), next)
			return nil
		},
	}
}

func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List registered layouts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range gridworld.ListLayouts() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
