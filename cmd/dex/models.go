package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modelsCmd)
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models scripts can name",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(context.Background())
	reg := mustLoadRegistry(cfg)

	models := make([]ModelResponse, 0, len(reg.Names()))
	for _, name := range reg.Names() {
		entry, _ := reg.Lookup(name)
		models = append(models, ModelResponse{
			Name:       entry.Name,
			Kind:       entry.Kind(),
			Identifier: entry.IdentifierField,
			Fields:     entry.Schema.FieldNames(),
		})
	}

	if humanOutput {
		for _, m := range models {
			fmt.Printf("%-12s %-12s %s\n", strings.ToUpper(m.Name), m.Identifier, strings.Join(m.Fields, ", "))
		}
		return nil
	}
	return outputJSON(models)
}
