// Command pegrun loads a PEG grammar description, runs the
// error-recovering parser over an input file, and prints the result.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goparse/peg"
)

var (
	configPath  string
	grammarPath string
	inputPath   string
	ruleName    string
	timeoutMS   int
	trace       bool
)

func main() {
	root := &cobra.Command{
		Use:   "pegrun",
		Short: "Run a PEG grammar's error-recovering parser over an input file",
	}
	root.AddCommand(newParseCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse an input file against a grammar rule, recovering from every error",
		RunE:  runParse,
	}
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML run-config sidecar (flags below override its fields)")
	flags.StringVar(&grammarPath, "grammar", "", "path to a .peg grammar description")
	flags.StringVar(&inputPath, "input", "", "path to the input file to parse")
	flags.StringVar(&ruleName, "rule", "", "rule to start from (defaults to the grammar's first definition)")
	flags.IntVar(&timeoutMS, "timeout-ms", 0, "wall-clock timeout in milliseconds (0 means no timeout)")
	flags.BoolVar(&trace, "trace", false, "log every PreMatch/MatchSuccess/MatchFailure event at debug level")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if configPath != "" {
		cfg, err := peg.LoadRunConfig(configPath)
		if err != nil {
			return err
		}
		if !flags.Changed("grammar") && cfg.Grammar != "" {
			grammarPath = cfg.Grammar
		}
		if !flags.Changed("input") && cfg.Input != "" {
			inputPath = cfg.Input
		}
		if !flags.Changed("rule") && cfg.Rule != "" {
			ruleName = cfg.Rule
		}
		if !flags.Changed("timeout-ms") && cfg.TimeoutMS != 0 {
			timeoutMS = cfg.TimeoutMS
		}
		if !flags.Changed("trace") && cfg.Trace {
			trace = cfg.Trace
		}
	}
	if grammarPath == "" {
		return fmt.Errorf("no grammar file given (--grammar or config's grammar field)")
	}
	if inputPath == "" {
		return fmt.Errorf("no input file given (--input or config's input field)")
	}

	grammarSrc, err := os.ReadFile(grammarPath)
	if err != nil {
		return fmt.Errorf("reading grammar: %w", err)
	}
	inputSrc, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	grammar, err := peg.ParseGrammar(string(grammarSrc))
	if err != nil {
		return fmt.Errorf("parsing grammar: %w", err)
	}

	root := grammar.Start()
	if ruleName != "" {
		root = grammar.Rule(ruleName)
		if root == nil {
			return fmt.Errorf("no such rule: %s", ruleName)
		}
	}

	timeout := time.Duration(timeoutMS) * time.Millisecond
	runner := peg.NewRecoveringRunner(root, timeout)
	if trace {
		logrus.SetLevel(logrus.DebugLevel)
		runner.RegisterListener(&traceListener{log: logrus.StandardLogger()})
	}

	result, err := runner.Run(string(inputSrc))
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run_id: %s\n", result.RunID)
	fmt.Fprintf(cmd.OutOrStdout(), "matched: %t\n", result.Matched)
	fmt.Fprintf(cmd.OutOrStdout(), "errors: %d\n", len(result.Errors))
	for _, e := range result.Errors {
		pos := e.Buffer.Position(e.Buffer.OriginalIndex(e.StartIndex))
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s (%s)\n", e.Error(), pos)
	}
	return nil
}

// traceListener satisfies peg.Listener, logging lifecycle events at
// debug level in place of a JSON trace export, left as an external
// collaborator to implement.
type traceListener struct {
	log *logrus.Logger
}

func (t *traceListener) PreParse(buffer peg.InputBuffer) {
	t.log.WithField("length", buffer.Length()).Debug("pre-parse")
}

func (t *traceListener) PreMatch(ctx *peg.MatcherContext) {
	t.log.WithField("matcher", ctx.Matcher().Label()).WithField("index", ctx.CurrentIndex).Debug("pre-match")
}

func (t *traceListener) MatchSuccess(ctx *peg.MatcherContext) {
	t.log.WithField("matcher", ctx.Matcher().Label()).Debug("match success")
}

func (t *traceListener) MatchFailure(ctx *peg.MatcherContext) {
	t.log.WithField("matcher", ctx.Matcher().Label()).Debug("match failure")
}

func (t *traceListener) PostParse(result *peg.ParseResult) {
	t.log.WithField("matched", result.Matched).WithField("errors", len(result.Errors)).Debug("post-parse")
}
