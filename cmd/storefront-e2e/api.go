package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kuitang/storefront-e2e/internal/apiclient"
	"github.com/kuitang/storefront-e2e/internal/bdd"
	"github.com/kuitang/storefront-e2e/internal/report"
	"github.com/kuitang/storefront-e2e/internal/scenario"
	"github.com/kuitang/storefront-e2e/internal/suites"
)

type apiOptions struct {
	*rootOptions
	Cart bool
	Tags string
}

func newAPICommand(root *rootOptions) *cobra.Command {
	opts := &apiOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Run the API scenarios",
		Long: `Runs the API scenarios against the profile's API URL without a browser.
Accounts created along the way are deleted when each scenario ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := opts.profile
			rep := report.New(newRunID(), p.Name, time.Now())

			api := apiclient.New(p)
			defer api.Close()
			runner := scenario.NewRunner(p.RetriesForMode(), scenario.APIFactory(p, api), rep)

			tags := opts.Tags
			if tags == "" {
				tags = p.Tags
			}
			var selected []scenario.Scenario
			for _, sc := range suites.API(opts.Cart) {
				if bdd.MatchTags(tags, sc.Tags) {
					selected = append(selected, sc)
				}
			}
			runner.RunAll(ctx, selected)
			return finish(ctx, p, rep)
		},
	}

	cmd.Flags().BoolVar(&opts.Cart, "cart", false, "include cart scenarios (the public API has no cart endpoints)")
	cmd.Flags().StringVarP(&opts.Tags, "tags", "t", "", "tag expression over scenario tags; E2E_TAGS when empty")

	return cmd
}
