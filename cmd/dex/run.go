package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dotsian/dexscript/internal/engine"
)

var (
	runExec    string
	runAttachs []string
)

func init() {
	_ = godotenv.Load()

	runCmd.Flags().StringVarP(&runExec, "exec", "e", "", "Script text to run instead of a file")
	runCmd.Flags().StringArrayVar(&runAttachs, "attach", nil, "File to attach to the script (repeatable)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Execute a DexScript script",
	Long: `Execute a DexScript script from a file, from -e, or from stdin ("-").

Lines run in order and execution stops at the first error; lines that
already ran are not rolled back. Attachments are available to UPDATE
and FILE > WRITE.

Examples:
  dex run -e 'CREATE > BALL > Earth'
  dex run seed.dex
  dex run -e 'UPDATE > BALL > Earth > WILD_CARD' --attach card.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	code, err := readCode(runExec, args, os.Stdin)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	attachments, err := readAttachments(runAttachs)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg := mustLoadConfig(ctx)
	run, st := mustOpenRunner(cfg)
	defer st.Close()

	out := run.Run(ctx, code, attachments)

	if humanOutput {
		printOutputHuman(os.Stdout, out)
	} else {
		outputJSON(out)
	}

	if out.Error != "" {
		st.Close()
		os.Exit(ExitScriptError)
	}
	return nil
}

// readCode picks the script source: -e text, a file path, or stdin for "-".
func readCode(exec string, args []string, stdin io.Reader) (string, error) {
	if exec != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("use either -e or a file, not both")
		}
		return exec, nil
	}

	if len(args) == 0 {
		return "", fmt.Errorf("no script given (pass a file, - for stdin, or -e)")
	}

	if args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

func readAttachments(paths []string) ([]engine.Attachment, error) {
	var attachments []engine.Attachment
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading attachment: %w", err)
		}
		attachments = append(attachments, engine.Attachment{
			Filename: filepath.Base(p),
			Content:  data,
		})
	}
	return attachments, nil
}
