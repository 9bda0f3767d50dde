package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/config"
	"github.com/shashiranjanraj/stockbook/database/seeders"
	"github.com/shashiranjanraj/stockbook/pkg/database"
	"github.com/shashiranjanraj/stockbook/pkg/migration"
)

// openDB loads config and opens the configured database.
func openDB() (*gorm.DB, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	opts := database.DefaultOptions()
	opts.MaxOpenConns = config.DatabaseMaxOpenConns()
	opts.MaxIdleConns = config.DatabaseMaxIdleConns()
	return database.Open(config.DatabaseDriver(), config.DatabaseDSN(), opts)
}

// withDB runs fn against a freshly opened database and closes it after.
func withDB(fn func(db *gorm.DB) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Println("Running migrations…")
			return migration.New(db, os.Stdout).Run()
		})
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Println("Rolling back last batch…")
			return migration.New(db, os.Stdout).Rollback()
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			states, err := migration.New(db, os.Stdout).Status()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
			for _, s := range states {
				ran, batch := "no", "-"
				if s.Ran {
					ran, batch = "yes", fmt.Sprint(s.Batch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ran, batch)
			}
			return w.Flush()
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Println("Running seeders…")
			return seeders.RunAll(cmd.Context(), db, os.Stdout)
		})
	},
}
