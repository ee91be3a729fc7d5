package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/patientseek/pkg/cli"
	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/registry"
)

type generateFlags struct {
	prompt        string
	system        string
	model         string
	stream        bool
	json          bool
	schemaFile    string
	temperature   float64
	maxTokens     int
	showReasoning bool
	output        string
}

func newGenerateCmd(a *app) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Ask the model a single question",
		Long: `Send one prompt to the model and print its answer.

Examples:
  # One-shot question
  patientseek generate "What does a high TSH level indicate?"

  # Stream the answer as it is produced
  patientseek generate --stream --prompt "Explain HbA1c."

  # Structured output validated against a JSON Schema
  patientseek generate --json --schema answer.schema.json "Summarize the case."

  # Print the full normalized response
  patientseek generate --output json "Hello"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.prompt, "prompt", "p", "", "prompt text (default: the positional arguments)")
	cmd.Flags().StringVarP(&flags.system, "system", "s", "", "system prompt")
	cmd.Flags().StringVarP(&flags.model, "model", "m", registry.PatientSeek, "model name")
	cmd.Flags().BoolVar(&flags.stream, "stream", false, "stream the answer as it is generated")
	cmd.Flags().BoolVar(&flags.json, "json", false, "request JSON output")
	cmd.Flags().StringVar(&flags.schemaFile, "schema", "", "JSON Schema file for --json output")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", -1, "sampling temperature (default: backend default)")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 0, "maximum output tokens (default: backend default)")
	cmd.Flags().BoolVar(&flags.showReasoning, "show-reasoning", false, "print model reasoning to stderr")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "output format (text, json)")

	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, args []string, flags generateFlags) error {
	prompt := flags.prompt
	if prompt == "" {
		prompt = strings.Join(args, " ")
	}
	if strings.TrimSpace(prompt) == "" {
		return errors.New("a prompt is required (pass it as an argument or with --prompt)")
	}

	format, err := cli.ParseOutputFormat(flags.output)
	if err != nil {
		return err
	}

	req, err := flags.request(prompt)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	plugin, err := a.newPlugin(a.collector())
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	defer plugin.Close()

	model, err := plugin.Model(flags.model)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}

	out := cmd.OutOrStdout()

	if !flags.stream {
		resp, err := model.Generate(ctx, req, nil)
		if resp == nil {
			return cli.NewCommandError("generate", err)
		}
		if perr := printResponse(out, cmd.ErrOrStderr(), resp, format, flags.showReasoning); perr != nil {
			return perr
		}
		if err != nil {
			return cli.NewCommandError("generate", err)
		}
		return nil
	}

	// Streamed content is printed as it arrives; only the JSON view of the
	// full response is printed afterwards.
	var reasoning io.Writer
	if flags.showReasoning {
		reasoning = cmd.ErrOrStderr()
	}
	printer := cli.NewChunkPrinter(out, reasoning)
	if format == cli.FormatJSON {
		printer = cli.NewChunkPrinter(io.Discard, nil)
	}

	resp, err := model.Generate(ctx, req, printer.Callback())
	if ferr := printer.Finish(); ferr != nil {
		return ferr
	}
	if err != nil && resp == nil {
		return cli.NewCommandError("generate", err)
	}
	if format == cli.FormatJSON {
		if perr := cli.NewFormatter(cli.FormatJSON).FormatTo(out, resp); perr != nil {
			return perr
		}
	}
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	return nil
}

// request builds the generate request the flags describe.
func (f generateFlags) request(prompt string) (*protocol.GenerateRequest, error) {
	req := &protocol.GenerateRequest{}
	if f.system != "" {
		req.Messages = append(req.Messages, protocol.NewTextMessage(protocol.RoleSystem, f.system))
	}
	req.Messages = append(req.Messages, protocol.NewTextMessage(protocol.RoleUser, prompt))

	cfg := &protocol.GenerationConfig{}
	set := false
	if f.temperature >= 0 {
		cfg.Temperature = protocol.Ptr(f.temperature)
		set = true
	}
	if f.maxTokens > 0 {
		cfg.MaxOutputTokens = protocol.Ptr(f.maxTokens)
		set = true
	}
	if set {
		req.Config = cfg
	}

	if f.schemaFile != "" && !f.json {
		return nil, errors.New("--schema requires --json")
	}
	if f.json {
		req.Output = &protocol.OutputConfig{Format: protocol.OutputJSON}
		if f.schemaFile != "" {
			schema, err := readSchema(f.schemaFile)
			if err != nil {
				return nil, err
			}
			req.Output.Schema = schema
		}
	}

	return req, nil
}

func readSchema(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %q: %w", path, err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema %q: %w", path, err)
	}
	return schema, nil
}

// printResponse renders a finished response.
func printResponse(out, errOut io.Writer, resp *protocol.GenerateResponseData, format cli.OutputFormat, showReasoning bool) error {
	if format == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(out, resp)
	}

	for i, c := range resp.Candidates {
		if len(resp.Candidates) > 1 {
			fmt.Fprintf(out, "--- candidate %d (%s) ---\n", i, c.FinishReason)
		}
		if err := printParts(out, errOut, c.Message.Content, showReasoning); err != nil {
			return err
		}
	}
	return nil
}

func printParts(out, errOut io.Writer, parts []protocol.Part, showReasoning bool) error {
	for _, part := range parts {
		switch v := part.(type) {
		case protocol.ReasoningPart:
			if showReasoning {
				fmt.Fprintln(errOut, v.Text)
			}
		case protocol.TextPart:
			fmt.Fprintln(out, v.Text)
		case protocol.DataPart:
			if err := cli.NewFormatter(cli.FormatJSON).FormatTo(out, v.Data); err != nil {
				return err
			}
		case protocol.ToolRequestPart:
			input, err := json.Marshal(v.Input)
			if err != nil {
				return fmt.Errorf("failed to encode tool input: %w", err)
			}
			fmt.Fprintf(out, "tool call %s(%s) ref=%s\n", v.Name, input, v.Ref)
		}
	}
	return nil
}
