package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotsian/dexscript/internal/version"
)

const (
	aboutDescription = "DexScript is a set of commands created by DotZZ that allows you to easily modify, delete, and display data about models."
	aboutGuide       = "https://github.com/Dotsian/DexScript/wiki/Commands"
)

func init() {
	rootCmd.AddCommand(aboutCmd)
}

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Show the DexScript version and whether it is current",
	Args:  cobra.NoArgs,
	RunE:  runAbout,
}

func runAbout(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig(ctx)

	client := version.NewClient(version.WithCurrent(Version))
	status, err := client.Check(ctx, cfg.Settings.Reference)

	resp := AboutResponse{
		Name:        "DexScript",
		Description: aboutDescription,
		Version:     Version,
		Latest:      status.Latest,
		Status:      status.Label(),
		Guide:       aboutGuide,
	}
	if err != nil {
		resp.Status = "UNKNOWN"
	}

	if humanOutput {
		fmt.Println(resp.Description)
		fmt.Printf("\nVersion: %s (%s)\n", resp.Version, resp.Status)
		if resp.Latest != "" && resp.Latest != resp.Version {
			fmt.Printf("Latest:  %s\n", resp.Latest)
		}
		fmt.Printf("Guide:   %s\n", resp.Guide)
		return nil
	}
	return outputJSON(resp)
}
