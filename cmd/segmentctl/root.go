package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lllllllleong/pagedreading/internal/blob"
	"github.com/Lllllllleong/pagedreading/internal/publish"
	"github.com/Lllllllleong/pagedreading/internal/segment"
)

var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "segmentctl",
	Short: "Segment PDFs into reading sessions against a local directory",
	Long: `segmentctl runs the segmenter against a directory laid out like the
storage buckets: <root>/<uploads-bucket>/<user>/pdfs/<doc>/ holds the source
and its resume marker, <root>/<segments-bucket>/<user>/segments/<doc>/ holds
the published segments.

Settings can also come from SEGMENTCTL_* environment variables or a .env
file in the working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("root", ".", "directory standing in for the storage buckets")
	flags.String("uploads-bucket", "uploads", "bucket holding source documents and resume markers")
	flags.String("segments-bucket", "segments", "bucket receiving published segments")
	flags.Int("max-segments", segment.DefaultMaxSegments, "segments produced per run")
	flags.Int("concurrency", publish.DefaultConcurrency, "concurrent segment uploads")
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")

	for _, name := range []string{"root", "uploads-bucket", "segments-bucket", "max-segments", "concurrency", "verbose"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	viper.SetEnvPrefix("SEGMENTCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(runCmd, statusCmd, planCmd)
}

func openBucket(name string) (blob.Store, error) {
	return blob.OpenDir(filepath.Join(viper.GetString("root"), name))
}
