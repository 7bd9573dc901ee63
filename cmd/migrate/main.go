package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"studyflow/configs"
	"studyflow/internal/importer"
	"studyflow/internal/repository"
	"studyflow/pkg/database"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "StudyFlow data tools",
	}
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(schemaCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	var (
		file        string
		defaultUser int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from a legacy db.json export",
		Long: `Import tasks and archived tasks from a db.json export into PostgreSQL.

Records without an owner are assigned to --default-user. Records that fail
are reported and skipped.

Examples:
  migrate import --file db.json
  migrate import --file backup/db.json --default-user 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			defer f.Close()

			data, err := importer.Parse(f)
			if err != nil {
				return err
			}

			db, err := database.ConnectDB(configs.LoadConfig())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := repository.CreateTableIfNotExists(ctx, db); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Миграция данных из db.json в PostgreSQL...")

			tasks := repository.NewTaskStore(db)
			res, err := importer.Run(ctx, tasks, data, defaultUser, repository.Now(), out)
			if err != nil {
				return err
			}

			active, err := tasks.Count(ctx, false)
			if err != nil {
				return err
			}
			archived, err := tasks.Count(ctx, true)
			if err != nil {
				return err
			}
			users, err := repository.NewUserStore(db).Count(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nИмпортировано: %d, пропущено: %d, ошибок: %d\n", res.Imported, res.Skipped, res.Failed)
			fmt.Fprintln(out, "Статистика:")
			fmt.Fprintf(out, "  Активных задач: %d\n", active)
			fmt.Fprintf(out, "  Архивных задач: %d\n", archived)
			fmt.Fprintf(out, "  Пользователей: %d\n", users)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "db.json", "path to the db.json export")
	cmd.Flags().IntVarP(&defaultUser, "default-user", "u", 1, "owner for records without a userId")
	return cmd
}

func schemaCmd() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create the tables, or drop them with --drop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			db, err := database.ConnectDB(configs.LoadConfig())
			if err != nil {
				return err
			}
			defer db.Close()

			if drop {
				return repository.DeleteAllTable(ctx, db)
			}
			return repository.CreateTableIfNotExists(ctx, db)
		},
	}

	cmd.Flags().BoolVar(&drop, "drop", false, "drop all tables instead of creating them")
	return cmd
}
