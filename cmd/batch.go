package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repolens/internal/config"
	"github.com/naka-gawa/repolens/internal/domain"
	"github.com/naka-gawa/repolens/internal/report"
	"github.com/naka-gawa/repolens/internal/usecase"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyzes every repository listed in a YAML file",
	Long: `Analyzes the repositories listed under "repositories:" in a YAML file,
one after another. Each entry needs an owner and a repo and may set a branch
and a kind (lint, security, types or all). A failing repository is reported
and the run continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := newLogger(cmd)

		kindStr, _ := cmd.Flags().GetString("kind")
		kind, ok := domain.ParseKind(kindStr)
		if !ok {
			return fmt.Errorf("unknown analysis kind %q, use lint, security, types or all", kindStr)
		}
		path, _ := cmd.Flags().GetString("file")
		targets, err := config.LoadTargets(path)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		factory, err := newAnalyzerFactory(cmd, cfg, logger)
		if err != nil {
			return err
		}

		results, err := usecase.NewBatchRunner(factory, kind, logger).Run(ctx, targets)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			err = report.JSON(cmd.OutOrStdout(), results)
		} else {
			err = report.BatchConsole(cmd.OutOrStdout(), results)
		}
		if err != nil {
			return err
		}

		if failed := usecase.Failed(results); failed == len(results) && failed > 0 {
			return fmt.Errorf("all %d repositories failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringP("file", "f", "", "YAML file listing the repositories (required)")
	batchCmd.Flags().String("kind", string(domain.KindAll), "Default analysis kind for entries without one")
	batchCmd.MarkFlagRequired("file")
	addCommonFlags(batchCmd)
}
