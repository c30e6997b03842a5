package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/eisen/internal/config"
	"github.com/example/eisen/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the eisen home directory",
		Long:  `Write a default config.yaml and create the database at ~/.eisen/eisen.db.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			created, err := config.WriteDefault(cfg.HomeDir)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("✓ Wrote %s\n", config.ConfigPath(cfg.HomeDir))
			} else {
				fmt.Printf("  Keeping existing %s\n", config.ConfigPath(cfg.HomeDir))
			}

			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			if err := database.Close(); err != nil {
				return fmt.Errorf("failed to close database: %w", err)
			}
			fmt.Printf("✓ Database ready at %s\n", cfg.DBPath)

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  eisen import tasks.json")
			fmt.Println("  eisen task add \"My first task\" --quadrant Q1")
			fmt.Println("  eisen board")
			return nil
		},
	}
}
