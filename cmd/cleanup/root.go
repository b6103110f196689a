package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/field-report/internal/config"
	"github.com/bryanwahyu/field-report/internal/domain/report"
	"github.com/bryanwahyu/field-report/internal/infra/storage"
)

func openAssets(ctx context.Context, cfg *config.Config) (report.AssetStore, error) {
	if cfg.Storage.Driver == "minio" {
		return storage.New(ctx, storage.Options{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			Bucket:     cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
			PresignTTL: time.Duration(cfg.Minio.PresignHours) * time.Hour,
		})
	}
	return storage.NewLocal(cfg.Storage.TempDir)
}

type commandContext struct {
	configPath string
}

func (c *commandContext) assets(ctx context.Context) (*config.Config, report.AssetStore, error) {
	path := c.configPath
	if path == "" {
		path = config.PathFromEnv()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config load: %w", err)
	}
	store, err := openAssets(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("storage init: %w", err)
	}
	return cfg, store, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "cleanup",
		Short:         "Remove temporary photo assets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newOldCommand(ctx))
	rootCmd.AddCommand(newAllCommand(ctx))
	return rootCmd
}

func newOldCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "old [hours]",
		Short: "Delete assets older than hours (default cleanup.maxAgeHours)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.assets(cmd.Context())
			if err != nil {
				return err
			}
			age := cfg.MaxAssetAge()
			if len(args) == 1 {
				hours, err := strconv.Atoi(args[0])
				if err != nil || hours <= 0 {
					return fmt.Errorf("hours must be a positive integer, got %q", args[0])
				}
				age = time.Duration(hours) * time.Hour
			}
			n, err := store.PurgeOlderThan(cmd.Context(), age)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d file(s) older than %s\n", n, age)
			return nil
		},
	}
}

func newAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Delete every stored asset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := ctx.assets(cmd.Context())
			if err != nil {
				return err
			}
			n, err := store.PurgeOlderThan(cmd.Context(), 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d file(s)\n", n)
			return nil
		},
	}
}
