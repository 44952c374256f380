package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jacentio/classtree/hierarchy"
	"github.com/jacentio/classtree/localstore"
	"github.com/jacentio/classtree/objectstore"
)

func newObjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objects",
		Short: "Manage stored objects",
		Long:  `Commands for adding, listing and removing the objects classes are built over.`,
	}

	cmd.AddCommand(
		newObjectsAddCmd(),
		newObjectsListCmd(),
		newObjectsRemoveCmd(),
	)
	return cmd
}

func newObjectsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id>...",
		Short: "Add objects to the store",
		Long: `Adds objects with the given ids. Existing objects in the local
store get the new kind and description and keep their class tag.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			description, _ := cmd.Flags().GetString("description")
			logger := newLogger(cmd)
			ctx := cmd.Context()

			b, closeFn, err := openBackend(ctx, cmd, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			parsed := hierarchy.ParseKind(kind)
			for _, id := range args {
				switch st := b.(type) {
				case *localstore.Store:
					err = st.PutObject(ctx, localstore.Object{
						ID:          hierarchy.ObjectID(id),
						Kind:        parsed,
						Description: description,
					})
				case *objectstore.Store:
					err = st.PutObject(ctx, objectstore.Object{
						ID:          id,
						Kind:        string(parsed),
						Description: description,
					})
				}
				if err != nil {
					return fmt.Errorf("adding object %s: %w", id, err)
				}
				logger.Debug("object added", "objectID", id, "kind", parsed)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %d object(s)\n", len(args))
			return nil
		},
	}

	cmd.Flags().String("kind", "other", "Object kind: curve, surface, point, mesh, brep, annotation or other")
	cmd.Flags().String("description", "", "Object description")
	return cmd
}

func newObjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List objects in the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLocal(cmd); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			st, err := openLocal(cmd, newLogger(cmd))
			if err != nil {
				return err
			}
			defer st.Close()

			objs, err := st.Objects(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				if objs == nil {
					objs = []localstore.Object{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(objs)
			}

			if len(objs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No objects.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tCLASS\tDESCRIPTION")
			for _, o := range objs {
				tag := o.ClassTag
				if tag == "" {
					tag = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, o.Kind, tag, o.Description)
			}
			return w.Flush()
		},
	}
}

func newObjectsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove objects from the store",
		Long: `Removes objects. Local objects are deleted; DynamoDB objects are
soft-deleted by setting their TTL.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			ctx := cmd.Context()

			b, closeFn, err := openBackend(ctx, cmd, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			removed := 0
			for _, id := range args {
				switch st := b.(type) {
				case *localstore.Store:
					var existed bool
					existed, err = st.DeleteObject(ctx, hierarchy.ObjectID(id))
					if err == nil && !existed {
						logger.Warn("object not found", "objectID", id)
						continue
					}
				case *objectstore.Store:
					err = st.RemoveObject(ctx, hierarchy.ObjectID(id))
				}
				if err != nil {
					return fmt.Errorf("removing object %s: %w", id, err)
				}
				removed++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d object(s)\n", removed)
			return nil
		},
	}
}
