package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitecrawl/internal/output"
	"github.com/jmylchreest/sitecrawl/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		name := mustString(cmd, "format")
		if name == "" {
			fmt.Println(version.Full())
			return nil
		}
		format, err := output.ParseFormat(name)
		if err != nil {
			return err
		}
		w, err := output.NewWriter(os.Stdout, format)
		if err != nil {
			return err
		}
		return output.WriteAll(w, []version.Info{version.Get()})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().String("format", "", "output format: table, json, jsonl, yaml")
	rootCmd.Version = version.String()
}
