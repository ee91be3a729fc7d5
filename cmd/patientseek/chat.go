package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/patientseek/pkg/cli"
	"mercator-hq/patientseek/pkg/config"
	"mercator-hq/patientseek/pkg/deepseek"
	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/registry"
	"mercator-hq/patientseek/pkg/telemetry/metrics"
)

type chatFlags struct {
	system        string
	model         string
	showReasoning bool
	watch         bool
}

func newChatCmd(a *app) *cobra.Command {
	var flags chatFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive multi-turn session",
		Long: `Start an interactive session. Each line you type is sent with the
conversation so far and the answer is streamed back.

Commands:
  /reset   forget the conversation
  /exit    leave the session

With --config and --watch, models declared in the file are re-registered
whenever it changes. When telemetry.metrics.address is set, Prometheus
metrics are served there for the length of the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.system, "system", "s", "", "system prompt")
	cmd.Flags().StringVarP(&flags.model, "model", "m", registry.PatientSeek, "model name")
	cmd.Flags().BoolVar(&flags.showReasoning, "show-reasoning", false, "print model reasoning to stderr")
	cmd.Flags().BoolVar(&flags.watch, "watch", true, "reload models when the config file changes")

	return cmd
}

func (a *app) runChat(cmd *cobra.Command, flags chatFlags) error {
	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	collector := a.collector()
	plugin, err := a.newPlugin(collector)
	if err != nil {
		return cli.NewCommandError("chat", err)
	}
	defer plugin.Close()

	if _, err := plugin.Model(flags.model); err != nil {
		return cli.NewCommandError("chat", err)
	}

	if addr := a.cfg.Telemetry.Metrics.Address; addr != "" && a.cfg.Telemetry.Metrics.Enabled {
		_, shutdown, err := a.serveMetrics(addr, collector)
		if err != nil {
			return cli.NewCommandError("chat", err)
		}
		defer shutdown()
	}

	if flags.watch && a.cfgFile != "" {
		w, err := config.NewWatcher(a.cfgFile, 0, a.logger)
		if err != nil {
			return cli.NewCommandError("chat", err)
		}
		defer w.Stop()
		go func() {
			if err := w.Watch(ctx, func(cfg *config.Config) { a.redefineModels(plugin, cfg) }); err != nil {
				a.logger.Error("configuration watcher exited", "error", err)
			}
		}()
	}

	session := &chatSession{
		plugin:        plugin,
		modelName:     flags.model,
		system:        flags.system,
		showReasoning: flags.showReasoning,
		out:           cmd.OutOrStdout(),
		errOut:        cmd.ErrOrStderr(),
	}
	return session.run(ctx, cmd.InOrStdin())
}

// redefineModels registers every model of a reloaded configuration.
func (a *app) redefineModels(plugin *deepseek.Plugin, cfg *config.Config) {
	for _, m := range cfg.Models {
		if _, err := plugin.DefineModel(m.Definition()); err != nil {
			a.logger.Error("failed to redefine model", "model", m.Name, "error", err)
			continue
		}
		if m.StructuredOutput {
			plugin.Registry().AllowStructuredOutput(m.WireModel())
		}
	}
	a.logger.Info("models reloaded", "count", len(cfg.Models))
}

// serveMetrics exposes the collector until the returned function is called.
// It returns the address actually bound.
func (a *app) serveMetrics(addr string, collector *metrics.Collector) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(a.cfg.Telemetry.Metrics.Path, collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "address", ln.Addr().String(), "path", a.cfg.Telemetry.Metrics.Path)

	return ln.Addr(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

// chatSession keeps the conversation history of one interactive session.
type chatSession struct {
	plugin        *deepseek.Plugin
	modelName     string
	system        string
	showReasoning bool
	out           io.Writer
	errOut        io.Writer

	history []protocol.Message
}

func (s *chatSession) reset() {
	s.history = s.history[:0]
	if s.system != "" {
		s.history = append(s.history, protocol.NewTextMessage(protocol.RoleSystem, s.system))
	}
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	s.reset()
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			s.reset()
			fmt.Fprintln(s.out, "conversation cleared")
			continue
		}

		if err := s.turn(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(s.errOut, "error: %v\n", err)
		}
	}
}

// turn sends one user line and records the answer. A failed turn leaves the
// history as it was.
func (s *chatSession) turn(ctx context.Context, line string) error {
	model, err := s.plugin.Model(s.modelName)
	if err != nil {
		return err
	}

	messages := append(append([]protocol.Message(nil), s.history...), protocol.NewTextMessage(protocol.RoleUser, line))

	var reasoning io.Writer
	if s.showReasoning {
		reasoning = s.errOut
	}
	printer := cli.NewChunkPrinter(s.out, reasoning)

	resp, err := model.Generate(ctx, &protocol.GenerateRequest{Messages: messages}, printer.Callback())
	if ferr := printer.Finish(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	if len(resp.Candidates) == 0 {
		return errors.New("model returned no candidates")
	}

	// Reasoning is not sent back on later turns.
	var content []protocol.Part
	for _, p := range resp.Candidates[0].Message.Content {
		if _, ok := p.(protocol.ReasoningPart); !ok {
			content = append(content, p)
		}
	}
	s.history = append(messages, protocol.Message{Role: protocol.RoleModel, Content: content})
	return nil
}
