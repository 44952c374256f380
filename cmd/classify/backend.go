package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/jacentio/classtree/hierarchy"
	"github.com/jacentio/classtree/localstore"
	"github.com/jacentio/classtree/objectstore"
)

// backend is an object store the registry can sync with.
type backend interface {
	hierarchy.SyncAdapter
	hierarchy.Describer
}

var errLocalOnly = errors.New("this command needs the local store; drop --table")

// openBackend opens the DynamoDB table named by --table, or the --db file.
// The returned close function is never nil.
func openBackend(ctx context.Context, cmd *cobra.Command, logger *slog.Logger) (backend, func() error, error) {
	table, _ := cmd.Flags().GetString("table")
	if table == "" {
		st, err := openLocal(cmd, logger)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load AWS config: %w", err)
	}
	cfg := objectstore.DefaultConfig()
	cfg.ObjectTable = table
	st := objectstore.New(dynamodb.NewFromConfig(awsCfg), cfg, logger)
	return st, func() error { return nil }, nil
}

// openLocal opens the --db file.
func openLocal(cmd *cobra.Command, logger *slog.Logger) (*localstore.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	st, err := localstore.Open(path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening object store: %w", err)
	}
	return st, nil
}

// requireLocal fails when --table is set.
func requireLocal(cmd *cobra.Command) error {
	if table, _ := cmd.Flags().GetString("table"); table != "" {
		return errLocalOnly
	}
	return nil
}
