package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lllllllleong/pagedreading/internal/pdfdoc"
	"github.com/Lllllllleong/pagedreading/internal/segment"
)

type batchPlan struct {
	Document         string         `json:"document" yaml:"document"`
	PageCount        int            `json:"pageCount" yaml:"pageCount"`
	SegmentPageCount int            `json:"segmentPageCount" yaml:"segmentPageCount"`
	StartPage        int            `json:"startPage" yaml:"startPage"`
	Segments         []plannedRange `json:"segments" yaml:"segments"`
}

type plannedRange struct {
	Index     int `json:"index" yaml:"index"`
	StartPage int `json:"startPage" yaml:"startPage"`
	EndPage   int `json:"endPage" yaml:"endPage"`
}

var planCmd = &cobra.Command{
	Use:   "plan <file.pdf>",
	Short: "Show how a PDF would be segmented without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		id := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		doc, err := pdfdoc.LoadFile(id, file)
		if err != nil {
			return err
		}

		start, _ := cmd.Flags().GetInt("start")
		pages, _ := cmd.Flags().GetInt("pages-per-session")
		plan := segment.NewPlan(start, doc.PageCount(), pages, viper.GetInt("max-segments"))
		ranges, err := segment.Ranges(doc.PageCount(), plan)
		if err != nil {
			return err
		}

		out := batchPlan{
			Document:         id,
			PageCount:        doc.PageCount(),
			SegmentPageCount: plan.SegmentPageCount,
			StartPage:        start,
			Segments:         []plannedRange{},
		}
		for _, r := range ranges {
			out.Segments = append(out.Segments, plannedRange{Index: r.Index, StartPage: r.StartPage, EndPage: r.EndPage})
		}
		return output(cmd.OutOrStdout(), out)
	},
}

func init() {
	planCmd.Flags().Int("start", 0, "page the batch starts at (-1: document complete)")
	planCmd.Flags().Int("pages-per-session", 0, "reader's pages per session (0: size by document length)")
}
