package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kisah-comments/internal/config"
	"kisah-comments/internal/repository"
	"kisah-comments/internal/service/archive"
	"kisah-comments/internal/service/auth"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := config.NewPostgresDB(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		applied, err := repository.ApplyMigrations(cmd.Context(), db.DB)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("Schema is up to date")
			return nil
		}
		for _, v := range applied {
			fmt.Printf("✓ applied %s\n", v)
		}
		return nil
	},
}

var tokenEmail string

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Mint an access token for a user (development only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to mint tokens in production")
		}
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user ID: %w", err)
		}

		signed, expiresAt, err := auth.NewService(cfg).IssueAccessToken(userID, tokenEmail)
		if err != nil {
			return err
		}
		fmt.Println(signed)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive [subject-id]",
	Short: "Snapshot a subject's comment thread to object storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subject ID: %w", err)
		}

		db, err := config.NewPostgresDB(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		minioClient, err := config.NewMinIOClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to MinIO: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		svc := archive.NewService(repository.NewCommentRepository(db), minioClient, cfg.ArchiveBucket)
		snap, err := svc.Snapshot(ctx, subjectID)
		if err != nil {
			return err
		}
		fmt.Printf("✓ archived %d comments to %s/%s\n", snap.Count, cfg.ArchiveBucket, snap.ObjectName)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	rootCmd.AddCommand(migrateCmd, tokenCmd, archiveCmd)
}
