// cmd/starcorn/categories.go
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	custom_errors "starcorn/internal/errors"
	"starcorn/internal/model"
)

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the category table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.categorizer()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tPRIORITY\tTOPICS\tKEYWORDS\tNAME PATTERNS")
			for _, d := range cat.Definitions() {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", d.Name, d.Priority, len(d.Topics), len(d.Keywords), len(d.NamePatterns))
			}
			return tw.Flush()
		},
	}
}

func (a *app) explainCmd() *cobra.Command {
	var (
		topics      []string
		description string
	)

	cmd := &cobra.Command{
		Use:   "explain <owner/name>",
		Short: "Show how a repository would be categorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, name, err := parseFullName(args[0])
			if err != nil {
				return err
			}
			cat, err := a.categorizer()
			if err != nil {
				return err
			}

			repo := model.Repository{
				Name:     name,
				FullName: owner + "/" + name,
				Topics:   topics,
				Owner:    model.Owner{Login: owner},
			}
			if description != "" {
				repo.Description = &description
			}

			candidates := cat.Candidates(repo)
			if len(candidates) == 0 {
				fmt.Fprintln(a.stdout, "No category matched.")
			} else {
				tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "CATEGORY\tMATCH\tWEIGHT\tPRIORITY\tSIGNAL")
				for _, c := range candidates {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", c.Category, c.Strength, c.Strength.Weight(), c.Priority, c.Signal)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.stdout, "\n%s -> %s\n", repo.FullName, cat.Assign(repo))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&topics, "topics", nil, "comma-separated repository topics")
	cmd.Flags().StringVar(&description, "description", "", "repository description")
	return cmd
}

func parseFullName(s string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &custom_errors.ErrInvalidRepoFormat{Repo: s}
	}
	return parts[0], parts[1], nil
}
