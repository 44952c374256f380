package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jacentio/classtree/hierarchy"
	"github.com/jacentio/classtree/localstore"
	"github.com/jacentio/classtree/objectstore"
)

type tagEntry struct {
	ObjectID hierarchy.ObjectID `json:"object_id"`
	ClassID  string             `json:"class_id"`
	Class    string             `json:"class,omitempty"`
}

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List object class tags",
		Long: `Lists the class tag stored on every tagged object.

With --plan, class ids are resolved to class paths of that plan; tags
that match no class of the plan are marked as dangling. With --class,
only objects tagged with that class id are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, _ := cmd.Flags().GetString("plan")
			classFilter, _ := cmd.Flags().GetString("class")
			jsonOut, _ := cmd.Flags().GetBool("json")
			logger := newLogger(cmd)
			ctx := cmd.Context()

			var filter hierarchy.ClassID
			if classFilter != "" {
				id, err := uuid.Parse(classFilter)
				if err != nil {
					return fmt.Errorf("invalid --class: %w", err)
				}
				filter = id
			}

			b, closeFn, err := openBackend(ctx, cmd, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			tags := make(map[hierarchy.ObjectID]hierarchy.ClassID)
			switch st := b.(type) {
			case *localstore.Store:
				tags, err = st.Tags(ctx)
			case *objectstore.Store:
				if filter != uuid.Nil {
					var objs []hierarchy.ObjectID
					objs, err = st.ObjectsTagged(ctx, filter)
					for _, obj := range objs {
						tags[obj] = filter
					}
				} else {
					tags, err = st.ScanTags(ctx)
				}
			}
			if err != nil {
				return err
			}

			var r *hierarchy.Registry
			if planPath != "" {
				plan, err := loadPlan(planPath)
				if err != nil {
					return err
				}
				var ids *planIDs
				r, ids = newPlanRegistry(hierarchy.NopSync{}, logger)
				if _, err := buildPlan(ctx, r, ids, plan); err != nil {
					return err
				}
			}

			entries := make([]tagEntry, 0, len(tags))
			for obj, classID := range tags {
				if filter != uuid.Nil && classID != filter {
					continue
				}
				e := tagEntry{ObjectID: obj, ClassID: classID.String()}
				if r != nil {
					if _, err := r.Get(classID); err == nil {
						e.Class = classPath(r, classID)
					} else {
						e.Class = "(dangling)"
					}
				}
				entries = append(entries, e)
			}
			slices.SortFunc(entries, func(a, b tagEntry) int {
				return strings.Compare(string(a.ObjectID), string(b.ObjectID))
			})

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tagged objects.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OBJECT\tCLASS ID\tCLASS")
			for _, e := range entries {
				class := e.Class
				if class == "" {
					class = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.ObjectID, e.ClassID, class)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("plan", "", "Plan file used to resolve class names")
	cmd.Flags().String("class", "", "Only list objects tagged with this class id")
	return cmd
}
