package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/classtree/hierarchy"
)

type findResult struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Path    string               `json:"path"`
	Direct  int                  `json:"direct"`
	Total   int                  `json:"total"`
	Objects []hierarchy.ObjectID `json:"objects,omitempty"`
}

func newFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <plan.yaml> [term]",
		Short: "Search the classes of a plan by name",
		Long: `Builds the plan in memory, without touching the object store, and
lists the classes whose name contains term, ignoring case. Without a
term every class is listed.

With --objects the objects of each match and its subclasses are listed too.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			withObjects, _ := cmd.Flags().GetBool("objects")
			jsonOut, _ := cmd.Flags().GetBool("json")
			ctx := cmd.Context()

			plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}
			term := ""
			if len(args) == 2 {
				term = args[1]
			}

			r, ids := newPlanRegistry(hierarchy.NopSync{}, newLogger(cmd))
			if _, err := buildPlan(ctx, r, ids, plan); err != nil {
				return err
			}

			matches := r.Search(term)
			results := make([]findResult, 0, len(matches))
			for _, c := range matches {
				res := findResult{
					ID:     c.ID.String(),
					Name:   c.Name,
					Path:   classPath(r, c.ID),
					Direct: len(c.Members),
					Total:  r.AggregateMemberCount(c.ID),
				}
				if withObjects {
					res.Objects = r.ObjectsInSubtree(c.ID)
				}
				results = append(results, res)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(results)
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching classes.")
				return nil
			}
			for _, res := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d/%d)  %s\n", res.Path, res.Direct, res.Total, res.ID)
				for _, obj := range res.Objects {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", obj)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("objects", false, "List the objects of each match and its subclasses")
	return cmd
}
