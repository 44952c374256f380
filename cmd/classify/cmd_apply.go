package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/classtree/hierarchy"
	"github.com/jacentio/classtree/localstore"
	"github.com/jacentio/classtree/objectstore"
)

type applyOutput struct {
	Classes  []treeNode           `json:"classes"`
	Assigned int                  `json:"assigned"`
	Skipped  []hierarchy.ObjectID `json:"skipped"`
	Failed   []string             `json:"failed"`
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <plan.yaml>",
		Short: "Build the class hierarchy from a plan and tag its objects",
		Long: `Reads a plan of nested classes, creates them, assigns the listed
objects and writes each object's class tag to the store. The resulting
tree is printed as "name (direct/total)".

Objects the store doesn't hold are skipped. Failed tag writes are
reported on stderr and make the command exit non-zero.

Plan format:

  classes:
    - name: Building
      children:
        - name: Walls
          objects: [w1, w2]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")
			stats, _ := cmd.Flags().GetBool("stats")
			jsonOut, _ := cmd.Flags().GetBool("json")
			logger := newLogger(cmd)
			ctx := cmd.Context()

			plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}

			b, closeFn, err := openBackend(ctx, cmd, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			refreshes := 0
			switch st := b.(type) {
			case *localstore.Store:
				st.OnChange(func(ctx context.Context) { refreshes++ })
				if reset {
					cleared, err := st.ClearTags(ctx)
					if err != nil {
						return err
					}
					logger.Info("cleared existing tags", "count", cleared)
				}
			case *objectstore.Store:
				st.OnChange(func(ctx context.Context) { refreshes++ })
				if reset {
					return fmt.Errorf("--reset: %w", errLocalOnly)
				}
			}

			r, ids := newPlanRegistry(b, logger)
			res, err := buildPlan(ctx, r, ids, plan)
			if err != nil {
				return err
			}
			logger.Debug("plan applied",
				"classes", r.Len(),
				"assigned", res.Assigned,
				"skipped", len(res.Skipped),
				"refreshes", refreshes,
			)

			var describer hierarchy.Describer
			if stats {
				describer = b
			}
			tree, err := buildTree(ctx, r, r.RootClasses(), describer)
			if err != nil {
				return err
			}

			for _, obj := range res.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: not in the object store\n", obj)
			}
			for _, ferr := range res.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "tag write failed: %v\n", ferr)
			}

			if jsonOut {
				out := applyOutput{
					Classes:  tree,
					Assigned: res.Assigned,
					Skipped:  res.Skipped,
					Failed:   make([]string, 0, len(res.Failed)),
				}
				if out.Skipped == nil {
					out.Skipped = []hierarchy.ObjectID{}
				}
				for _, ferr := range res.Failed {
					out.Failed = append(out.Failed, ferr.Error())
				}
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(out); err != nil {
					return err
				}
			} else {
				printTree(cmd.OutOrStdout(), tree, 0)
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d class(es), %d object(s) assigned, %d skipped\n",
					r.Len(), res.Assigned, len(res.Skipped))
			}

			if len(res.Failed) > 0 {
				return fmt.Errorf("%d tag write(s) failed", len(res.Failed))
			}
			return nil
		},
	}

	cmd.Flags().Bool("reset", false, "Clear every existing tag before applying (local store only)")
	cmd.Flags().Bool("stats", false, "Show object kind statistics per class")
	return cmd
}
