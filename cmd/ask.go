// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"medconnect/agent/internal/bridge"
	"medconnect/agent/internal/httperrors"
	"medconnect/agent/internal/logging"
	"medconnect/agent/internal/progress"
	"medconnect/agent/internal/reasoning"
	"medconnect/agent/internal/terminal"
	"medconnect/agent/internal/workflow"
)

var (
	askRemote  string
	askTLS     bool
	askPingLLM bool
	askSteps   bool
)

// askCmd answers one request from the terminal.
var askCmd = &cobra.Command{
	Use:   `ask "<request>"`,
	Short: "Ask the assistant a single question",
	Long: `The ask command runs one request through the assistant and prints the answer.

By default the request runs in this process against the configured database and
reasoning provider. With --remote it is sent to a running 'medconnect serve'
over gRPC instead.

Examples:
  medconnect ask "What cardiologists are available?"
  medconnect ask "Book Dr. Smith for John Doe tomorrow at 10am, reason checkup"
  medconnect ask --remote localhost:50051 "List all doctors"
  medconnect ask --ping-llm`,
	Args: func(cmd *cobra.Command, args []string) error {
		if askPingLLM {
			return nil
		}
		if strings.TrimSpace(strings.Join(args, " ")) == "" {
			return errors.New("a request is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if askPingLLM {
			return pingLLM(ctx)
		}
		req := workflow.Request{UserInput: strings.Join(args, " ")}
		if askRemote != "" {
			return askRemotely(ctx, req)
		}
		return askLocally(ctx, req)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askRemote, "remote", "", "gRPC address of a running assistant (host:port)")
	askCmd.Flags().BoolVar(&askTLS, "tls", false, "use TLS for --remote")
	askCmd.Flags().BoolVar(&askPingLLM, "ping-llm", false, "check that the reasoning provider answers, then exit")
	askCmd.Flags().BoolVar(&askSteps, "steps", false, "print each pipeline stage as it completes")
}

func askLocally(ctx context.Context, req workflow.Request) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	tracker := progress.NewTracker()
	renderer := progress.NewRenderer(os.Stdout, askSteps)
	a, err := newApp(ctx, cfg, progress.Fanout(tracker.Observe, renderer.Render))
	if err != nil {
		pterm.Println(logging.PresentError("❌ Cannot start the assistant", err))
		return err
	}
	defer a.Close()

	stopSpinner := func() {}
	if terminal.IsInteractive(os.Stdout) && !askSteps {
		cursor.Hide()
		stopSpinner = startInlineSpinner(os.Stdout, "thinking", brailleFrames, 100*time.Millisecond)
	}
	resp := a.orch.Run(ctx, req)
	stopSpinner()
	cursor.Show()

	printAnswer(resp)
	if tracker.HasDegraded() {
		pterm.Warning.Println("Some stages failed; the log file has the details.")
	}
	if verbose && tracker.Done() {
		pterm.Println(pterm.FgGray.Sprintf("path: %s (%s)", tracker.Path(), tracker.Elapsed().Round(time.Millisecond)))
	}
	return nil
}

func askRemotely(ctx context.Context, req workflow.Request) error {
	b, err := bridge.New(askRemote, askTLS)
	if err != nil {
		return err
	}
	defer b.Close()

	callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := b.Health(callCtx); err != nil {
		return httperrors.Report(os.Stdout, err, askRemote, "checking the assistant")
	}
	resp, err := b.Chat(callCtx, req)
	if err != nil {
		return httperrors.Report(os.Stdout, err, askRemote, "sending the request")
	}
	printAnswer(resp)
	return nil
}

func pingLLM(ctx context.Context) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, flush, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer flush()

	llm, err := reasoning.New(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	host := cfg.LLM.Provider
	if cfg.LLM.BaseURL != "" {
		host = httperrors.HostOf(cfg.LLM.BaseURL)
	}
	answer, err := reasoning.Ping(ctx, llm)
	if err != nil {
		return httperrors.Report(os.Stdout, err, host, "contacting the reasoning provider")
	}
	pterm.Success.Printf("%s (%s) answered: %s\n", cfg.LLM.Provider, cfg.LLM.Model, answer)
	return nil
}

func printAnswer(resp workflow.Response) {
	pterm.Println()
	pterm.Println(resp.FinalResponse)
	pterm.Println()
	pterm.Println(pterm.FgGray.Sprintf("intent: %s", resp.Intent))
}
