package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/healthguard/healthguard"
)

type cliState struct {
	configPath string
	logLevel   string

	cfg     healthguard.Config
	logger  *zap.Logger
	service *healthguard.Service
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	state := &cliState{}
	root := &cobra.Command{
		Use:           "healthguard-cli",
		Short:         "Diabetes and cardiovascular risk screening with a medical chatbot",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			state.close()
		},
	}
	root.PersistentFlags().StringVar(&state.configPath, "config", "", "path to config.json (default: ./config.json)")
	root.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	predict := &cobra.Command{
		Use:   "predict",
		Short: "Score one patient",
	}
	for _, d := range healthguard.Diseases() {
		predict.AddCommand(newDiseaseCmd(state, d))
	}
	root.AddCommand(predict, newBatchCmd(state), newChatCmd(state), newConfigCmd(state), newAboutCmd())
	return root
}

func (s *cliState) open() error {
	cfg, err := healthguard.LoadConfig(s.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.logLevel != "" {
		cfg.LogLevel = s.logLevel
	}
	logger, err := healthguard.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	service, err := healthguard.NewService(nil, cfg, logger)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	s.cfg = cfg
	s.logger = logger
	s.service = service
	logger.Debug("config loaded", zap.String("config", s.configPath), zap.String("store", cfg.Store.Type))
	return nil
}

func (s *cliState) close() {
	if s.service != nil {
		if err := s.service.Close(); err != nil {
			s.logger.Warn("close service", zap.Error(err))
		}
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

func newDiseaseCmd(state *cliState, d healthguard.Disease) *cobra.Command {
	schema, _ := healthguard.SchemaFor(d)
	values := make(map[string]*string, schema.Len())
	var patientName, reportPath string
	cmd := &cobra.Command{
		Use:   string(d),
		Short: schema.Title,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := make(healthguard.Form, len(values))
			for name, v := range values {
				form[name] = *v
			}
			a := state.service.Assess(cmd.Context(), d, patientName, form)
			printAssessment(cmd.OutOrStdout(), a)
			if reportPath != "" && a.Report != nil {
				if err := a.Report.Save(reportPath); err != nil {
					return fmt.Errorf("save report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", reportPath)
			}
			return a.Err
		},
	}
	for _, f := range schema.Features {
		values[f.Name] = cmd.Flags().String(f.Name, f.Default, featureUsage(f))
	}
	cmd.Flags().StringVar(&patientName, "name", "", "patient name shown on the report")
	cmd.Flags().StringVar(&reportPath, "report", "", "write the report to this .md or .html file")
	return cmd
}

func featureUsage(f healthguard.FeatureSpec) string {
	usage := f.Label
	if f.Unit != "" {
		usage += " (" + f.Unit + ")"
	}
	if f.Table != nil {
		usage += ": " + strings.Join(f.Table.Options(), ", ")
	}
	return usage
}

func printAssessment(w io.Writer, a healthguard.Assessment) {
	fmt.Fprintln(w, a.Message)
	if len(a.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, r := range a.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
	if a.Prediction != nil {
		fmt.Fprintf(w, "Verdict: %s\n", a.Prediction.Verdict())
	}
}

func newChatCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [question...]",
		Short: "Ask the medical chatbot; starts an interactive session without arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if n, err := state.service.KnowledgeBaseStatus(); err != nil {
				fmt.Fprintln(out, "Failed to load the knowledge base. Please check the file path and format.")
			} else {
				state.logger.Debug("knowledge base ready", zap.Int("entries", n))
			}
			if len(args) > 0 {
				fmt.Fprintln(out, state.service.Ask(cmd.Context(), strings.Join(args, " ")).Text)
				return nil
			}
			fmt.Fprintln(out, "Ask me anything about health concerns or disease prevention! (type \"exit\" to quit)")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(line) {
				case "":
					continue
				case "exit", "quit":
					return nil
				}
				fmt.Fprintln(out, state.service.Ask(cmd.Context(), line).Text)
				if cmd.Context().Err() != nil {
					return nil
				}
			}
		},
	}
}

func newAboutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Describe the tool",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), healthguard.AboutText)
		},
	}
}
