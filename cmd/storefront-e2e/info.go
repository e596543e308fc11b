package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/steps"
)

func newProfilesCommand(root *rootOptions) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Print the resolved profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				rows := [][]string{{"profile", "baseUrl", "retries", "video"}}
				for _, name := range config.BuiltinNames() {
					p, _ := config.Builtin(name)
					rows = append(rows, []string{name, p.BaseURL, itoa(p.Retries.RunMode), strconv.FormatBool(p.Video)})
				}
				obs.Table(rows)
				return nil
			}
			obs.Table(root.profile.Rows())
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "all", false, "list the built-in profiles instead")
	return cmd
}

func newStepsCommand() *cobra.Command {
	var viewports bool
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List every bound step phrase",
		Args:  cobra.NoArgs,
		// Listing needs no profile.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, phrase := range steps.Phrases() {
				fmt.Fprintln(out, phrase)
			}
			if viewports {
				fmt.Fprintln(out)
				for _, name := range browser.ViewportNames() {
					v := browser.Viewports[name]
					fmt.Fprintf(out, "%s\t%dx%d\n", name, v.Width, v.Height)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&viewports, "viewports", false, "also list the named viewports")
	return cmd
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
