package main

import (
	"fmt"
	"os"

	"github.com/niumlaque/nablazy/internal/app"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "nablazy",
		Short:         "Download video or audio from YouTube, Twitter/X and TikTok over HTTP",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Setup(version)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
