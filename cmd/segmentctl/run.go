package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lllllllleong/pagedreading/internal/gcp"
	"github.com/Lllllllleong/pagedreading/internal/models"
	"github.com/Lllllllleong/pagedreading/internal/services"
)

var runCmd = &cobra.Command{
	Use:   "run <user> <document>",
	Short: "Produce the next batch of segments for a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID, documentID := args[0], args[1]

		if file, _ := cmd.Flags().GetString("file"); file != "" {
			if err := stageUpload(ctx, userID, documentID, file); err != nil {
				return err
			}
		}

		artifacts, err := openBucket(viper.GetString("segments-bucket"))
		if err != nil {
			return err
		}
		pages, _ := cmd.Flags().GetInt("pages-per-session")
		fn := services.New(services.Dependencies{
			OpenBucket: openBucket,
			Artifacts:  artifacts,
			Profiles:   staticProfile(pages),
			Config: services.SegmenterConfig{
				UploadsBucket:     viper.GetString("uploads-bucket"),
				SegmentsBucket:    viper.GetString("segments-bucket"),
				MaxSegments:       viper.GetInt("max-segments"),
				UploadConcurrency: viper.GetInt("concurrency"),
			},
		})
		resp, err := fn.ProcessRequest(ctx, &models.SegmentRequest{UserID: userID, FileName: documentID})
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), resp)
	},
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "copy this PDF into the uploads bucket before running")
	runCmd.Flags().Int("pages-per-session", 0, "reader's pages per session (0: size by document length)")
}

// staticProfile answers every user with the same pace.
type staticProfile int

func (p staticProfile) PagesPerSession(ctx context.Context, userID string) (int, error) {
	if p <= 0 {
		return 0, fmt.Errorf("user %s: %w", userID, gcp.ErrProfileNotFound)
	}
	return int(p), nil
}

func stageUpload(ctx context.Context, userID, documentID, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	uploads, err := openBucket(viper.GetString("uploads-bucket"))
	if err != nil {
		return err
	}
	object := services.SourceObject(userID, documentID)
	if err := uploads.Upload(ctx, object, "application/pdf", data); err != nil {
		return fmt.Errorf("failed to stage %s as %s: %w", file, object, err)
	}
	return nil
}
