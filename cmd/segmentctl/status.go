package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lllllllleong/pagedreading/internal/publish"
	"github.com/Lllllllleong/pagedreading/internal/resume"
)

type documentStatus struct {
	UserID     string   `json:"userId" yaml:"userId"`
	DocumentID string   `json:"documentId" yaml:"documentId"`
	Started    bool     `json:"started" yaml:"started"`
	Complete   bool     `json:"complete" yaml:"complete"`
	NextPage   int      `json:"nextPage" yaml:"nextPage"`
	Segments   []string `json:"segments" yaml:"segments"`
}

var statusCmd = &cobra.Command{
	Use:   "status <user> <document>",
	Short: "Show the resume marker and published segments of a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st := documentStatus{UserID: args[0], DocumentID: args[1]}

		uploads, err := openBucket(viper.GetString("uploads-bucket"))
		if err != nil {
			return err
		}
		segments, err := openBucket(viper.GetString("segments-bucket"))
		if err != nil {
			return err
		}

		m, err := resume.NewStore(uploads).Get(ctx, st.UserID, st.DocumentID)
		switch {
		case errors.Is(err, resume.ErrNotFound):
		case err != nil:
			return err
		default:
			st.Started = true
			st.Complete = m.Complete()
			st.NextPage = m.LastPage
		}

		st.Segments, err = segments.List(ctx, publish.SegmentsDir(st.UserID, st.DocumentID))
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), st)
	},
}
