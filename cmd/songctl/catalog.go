package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"songdrop/internal/catalog"
	"songdrop/internal/domain"
	"songdrop/internal/matcher"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate the catalog manifest and try the matcher against it",
	}
	cmd.AddCommand(catalogCheckCmd(), catalogMatchCmd())
	return cmd
}

func catalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [manifest]",
		Short: "Parse a JSON or YAML manifest and summarize it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := catalog.NewFileSource(args[0]).Load(cmd.Context())
			if err != nil {
				return err
			}
			byMode := map[string]int{}
			noKeywords := 0
			for _, item := range items {
				mode := item.Mode
				if mode == "" {
					mode = "(none)"
				}
				byMode[mode]++
				if len(item.Keywords) == 0 {
					noKeywords++
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d items\n", len(items))
			modes := make([]string, 0, len(byMode))
			for m := range byMode {
				modes = append(modes, m)
			}
			sort.Strings(modes)
			for _, m := range modes {
				fmt.Fprintf(out, "  mode %-12s %d\n", m, byMode[m])
			}
			if noKeywords > 0 {
				fmt.Fprintf(out, "warning: %d items have no keywords and only match on mode\n", noKeywords)
			}
			return nil
		},
	}
}

func catalogMatchCmd() *cobra.Command {
	var mode, style, story string
	cmd := &cobra.Command{
		Use:   "match [manifest]",
		Short: "Score every candidate for a story and show the pick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := catalog.NewFileSource(args[0]).Load(cmd.Context())
			if err != nil {
				return err
			}
			filters := domain.MatchFilters{Mode: mode, MusicStyle: style}
			ranked := matcher.Rank(items, filters, story)
			sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

			out := cmd.OutOrStdout()
			for _, s := range ranked {
				fmt.Fprintf(out, "%6.2f  %s\n", s.Score, s.Item.ID)
			}
			if picked, ok := matcher.Match(items, filters, story); ok {
				fmt.Fprintf(out, "match: %s\n", picked.ID)
			} else {
				fmt.Fprintln(out, "match: none")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "mode filter")
	cmd.Flags().StringVar(&style, "style", "", "music style filter")
	cmd.Flags().StringVar(&story, "story", "", "story text")
	return cmd
}
