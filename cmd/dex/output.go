package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dotsian/dexscript/internal/runner"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SettingResponse is the response for setting commands.
type SettingResponse struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Message string `json:"message,omitempty"`
}

// AboutResponse is the response for the about command.
type AboutResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Latest      string `json:"latest,omitempty"`
	Status      string `json:"status"`
	Guide       string `json:"guide"`
}

// ModelResponse describes one registered model.
type ModelResponse struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Identifier string   `json:"identifier"`
	Fields     []string `json:"fields"`
}

// printOutputHuman prints replies the way a chat front end would show them.
func printOutputHuman(w io.Writer, out runner.Output) {
	for _, r := range out.Replies {
		if r.Text != "" {
			fmt.Fprintln(w, r.Text)
		}
		for _, f := range r.Files {
			fmt.Fprintf(w, "[file] %s\n", f)
		}
	}
	if out.Reaction != "" {
		fmt.Fprintln(w, out.Reaction)
	}
}
