package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotsian/dexscript/internal/config"
)

func init() {
	rootCmd.AddCommand(settingCmd)
}

var settingCmd = &cobra.Command{
	Use:   "setting [key] [value]",
	Short: "Show or change a setting",
	Long: `Show or change a setting.

Usage:
  dex setting                        # Show all settings
  dex setting DEBUG                  # Show one setting
  dex setting DEBUG true             # Change a setting

Keys:
  DEBUG             Show full diagnostics instead of a summary on failure
  OUTDATED-WARNING  Check for a newer DexScript before each run
  REFERENCE         Branch or tag the version check reads`,
	Args: cobra.MaximumNArgs(2),
	RunE: runSetting,
}

func runSetting(cmd *cobra.Command, args []string) error {
	// Environment overrides are left out so Save never persists them.
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	settings := cfg.Settings

	if len(args) == 0 {
		if humanOutput {
			for _, key := range config.Keys() {
				value, _ := settings.Get(key)
				fmt.Printf("%-17s %s\n", key+":", value)
			}
		} else {
			outputJSON(settings.Map())
		}
		return nil
	}

	key := strings.ToUpper(args[0])

	if len(args) == 1 {
		value, err := settings.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(SettingResponse{Key: key, Value: value})
		}
		return nil
	}

	if err := settings.Set(key, args[1]); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := cfg.Save(); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	msg := fmt.Sprintf("`%s` has been set to `%s`", key, args[1])
	if humanOutput {
		fmt.Println(msg)
	} else {
		outputJSON(SettingResponse{Key: key, Value: args[1], Message: msg})
	}
	return nil
}
