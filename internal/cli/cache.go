package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mdpolish/internal/pipeline"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the enhanced page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached page",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := commandConfig(cmd)
		if err != nil {
			return err
		}

		p, err := pipeline.NewPipeline(cfg, slog.Default())
		if err != nil {
			return err
		}
		if p.Cache() == nil {
			fmt.Println("Cache is disabled")
			return nil
		}
		if err := p.Cache().Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}

		fmt.Printf("✓ Cleared cache: %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
