package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"support-agent/internal/repository"
)

func newSeedCmd(app *App) *cobra.Command {
	var fixturePath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load customers and orders into the database",
		Long:  "Load customers and orders from a YAML fixture into the database. Without --fixture the built-in demo data is used.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixture, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}

			dbPath, _ := cmd.Flags().GetString("db")
			store, closeDB, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := repository.Seed(cmd.Context(), store, fixture)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d orders for %d customers into %s\n", n, len(fixture.Customers), dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture file (default: built-in demo data)")
	return cmd
}

func loadFixture(path string) (repository.Fixture, error) {
	if path == "" {
		return repository.DemoFixture()
	}
	f, err := os.Open(path)
	if err != nil {
		return repository.Fixture{}, fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()
	return repository.LoadFixture(f)
}

func openStore(path string) (*repository.SQLiteStore, func() error, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("no database path: set --db or SUPPORTCHAT_DB")
	}
	db, err := repository.OpenDB(path)
	if err != nil {
		return nil, nil, err
	}
	store, err := repository.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db.Close, nil
}
