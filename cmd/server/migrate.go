package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"promisetracker/internal/platform/kafka"
	"promisetracker/internal/platform/postgres"
)

func migrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and create Kafka topics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if cfg.Database.DSN == "" {
				color.New(color.FgYellow).Fprintln(out, "no database configured, skipping migrations")
			} else {
				db, err := postgres.Open(ctx, cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				applied, err := postgres.Migrate(ctx, db)
				if err != nil {
					return err
				}
				for _, version := range applied {
					fmt.Fprintf(out, "%s %s\n", color.GreenString("applied"), version)
				}
				if len(applied) == 0 {
					fmt.Fprintln(out, "database schema is up to date")
				}
			}

			producer, err := kafka.NewProducer(cfg.Kafka)
			if err != nil {
				return err
			}
			if producer == nil {
				color.New(color.FgYellow).Fprintln(out, "no kafka brokers configured, skipping topics")
				return nil
			}
			defer producer.Close()
			if err := kafka.EnsureTopics(ctx, producer, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor, cfg.Kafka.VerificationTopic); err != nil {
				return err
			}
			logger.InfoContext(ctx, "kafka topics ready", "topic", cfg.Kafka.VerificationTopic)
			fmt.Fprintf(out, "%s %s\n", color.GreenString("topic"), cfg.Kafka.VerificationTopic)
			return nil
		},
	}
}
