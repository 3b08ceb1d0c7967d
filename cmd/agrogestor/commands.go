package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and the admin account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, closeLog, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		if _, err := os.Stat(cfg.Database.Path); err == nil {
			return fmt.Errorf("database file %s already exists", cfg.Database.Path)
		}

		database, password, err := initDatabase(cfg.Database.Path, cfg.Auth.AdminEmail)
		if err != nil {
			return err
		}
		database.Close()

		printInitResult(cfg.Database.Path, cfg.Auth.AdminEmail, password)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the farm document as JSON to file, or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		data, err := newFarmStore(cfg, database, nil).Export(context.Background())
		if err != nil {
			return fmt.Errorf("encoding document: %w", err)
		}
		data = append(data, '\n')

		if len(args) == 0 {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(args[0], data, 0o640); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the farm document with a JSON export",
	Long: `Replace the whole farm document with the contents of file.

The file goes through the same repair as a stored document: missing
collections are created, unknown enum values fall back to their defaults
and records pointing at missing items or animals are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading import: %w", err)
		}
		if len(raw) == 0 {
			return errors.New("import file is empty")
		}

		cfg, closeLog, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		doc := newFarmStore(cfg, database, nil).Replace(context.Background(), raw)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items, %d movements, %d animals, %d weighings, %d work orders\n",
			len(doc.Inventory), len(doc.Movements), len(doc.Animals), len(doc.Weighings), len(doc.WorkOrders))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd, exportCmd, importCmd)
}
