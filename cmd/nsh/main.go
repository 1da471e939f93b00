// Command nsh is a small interactive POSIX shell: a line is read, lexed,
// parsed into a command tree, and executed, with pipes, redirections,
// backgrounding, and terminal foreground control.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/phillarmonic/figlet/figletlib"
	"github.com/spf13/cobra"

	"github.com/arlco/nsh/internal/ast"
	"github.com/arlco/nsh/internal/config"
	"github.com/arlco/nsh/internal/lineedit"
	"github.com/arlco/nsh/internal/parser"
	"github.com/arlco/nsh/internal/procexec"
	"github.com/arlco/nsh/internal/recall"
)

var (
	parserOnly  bool
	printAST    bool
	noTermInput bool
	configPath  string
	evalLine    string
)

var rootCmd = &cobra.Command{
	Use:           "nsh",
	Short:         "a small interactive POSIX shell",
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.NoArgs,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&parserOnly, "parser-only", false, "parse each line but never execute it")
	rootCmd.Flags().BoolVar(&printAST, "print-ast", false, "print the parsed command tree for each line")
	rootCmd.Flags().BoolVar(&noTermInput, "no-term-input", false, "read lines with a plain line buffer instead of the terminal editor")
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to an rc file (default: .nshrc.yaml in cwd or $HOME)")
	rootCmd.Flags().StringVar(&evalLine, "eval", "", "parse and execute exactly one line, then exit with its status")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	selfPath, err := os.Executable()
	if err != nil {
		selfPath = os.Args[0]
	}

	if evalLine != "" {
		os.Exit(runEval(selfPath, evalLine))
	}

	if parserOnly {
		printAST = true
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	interactive := !noTermInput && lineedit.IsInteractive()

	if interactive && !cfg.DisableBanner {
		showBanner()
	}

	prompt := ""
	if interactive {
		prompt = cfg.Prompt
	}

	ring := recall.New(cfg.HistorySize)
	exec := procexec.New(os.Stdin, os.Stdout, os.Stderr, interactive, selfPath)

	src, err := lineedit.NewAuto(prompt, cfg.HistorySize, noTermInput, completer())
	if err != nil {
		return fmt.Errorf("opening line source: %w", err)
	}
	defer src.Close()

	exitCode := runLoop(exec, src, ring)
	exec.Shutdown()
	os.Exit(exitCode)
	return nil
}

// runLoop drives the read-parse-execute cycle until EOF or the exit
// builtin requests termination. Per-line failures never terminate the
// loop or change the process's own exit status; only a normal EOF (exit
// 0) or the exit builtin (its requested code) do.
func runLoop(exec *procexec.Executor, src lineedit.Source, ring *recall.Ring) int {
	for {
		line, eof, overflow := src.ReadLine()
		if overflow {
			fmt.Fprintln(os.Stderr, "nsh: line too long, ignored")
			continue
		}
		if eof {
			return 0
		}

		text := strings.TrimSpace(string(line))
		if text == "" {
			continue
		}
		ring.Push(text)

		chain, perr := parser.Parse(text)
		if perr != nil {
			printParseError(perr)
			continue
		}
		if chain == nil {
			continue
		}
		if printAST {
			ast.Fprint(os.Stdout, chain)
		}
		if parserOnly {
			continue
		}

		exec.ExecuteLine(chain)
		if exec.ExitRequested {
			return exec.ExitCode
		}
	}
}

// runEval implements --eval LINE: parse and execute a single line
// non-interactively and return its status, without a REPL loop. This is
// also how the executor realizes a `(...)` subshell, by re-invoking nsh
// with --eval on the subshell body's own text.
func runEval(selfPath, line string) int {
	chain, err := parser.Parse(line)
	if err != nil {
		printParseError(err)
		return 1
	}
	if chain == nil {
		return 0
	}
	exec := procexec.New(os.Stdin, os.Stdout, os.Stderr, false, selfPath)
	status := exec.ExecuteLine(chain)
	exec.Shutdown()
	if exec.ExitRequested {
		return exec.ExitCode
	}
	return status
}

func printParseError(err error) {
	if pe, ok := err.(*parser.ParseError); ok {
		fmt.Fprint(os.Stderr, pe.Format())
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

// completer offers the shell's two builtins, plus executables on $PATH,
// as completion candidates for the line editor.
func completer() lineedit.Completer {
	return func(prefix string) []string {
		candidates := []string{"cd", "exit"}
		for _, dir := range strings.Split(os.Getenv("PATH"), string(os.PathListSeparator)) {
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				candidates = append(candidates, entry.Name())
			}
		}
		return candidates
	}
}

func showBanner() {
	loader := figletlib.NewEmbededLoader()
	font, err := loader.GetFontByName("standard")
	if err != nil {
		return
	}
	startColor, _ := figletlib.ParseColor("#00FF95")
	endColor, _ := figletlib.ParseColor("#00C2FF")
	gradient := figletlib.ColorConfig{
		Mode:       figletlib.ColorModeGradient,
		StartColor: startColor,
		EndColor:   endColor,
	}
	figletlib.PrintColoredMsg("nsh", font, 80, font.Settings(), "left", gradient)
}
