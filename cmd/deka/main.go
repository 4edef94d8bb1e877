package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	deka "github.com/samifouad/deka-sub003"
)

const (
	appName     = "deka"
	historyFile = ".deka_history"
	promptMain  = "dk> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("deka %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", deka.Version)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(deka.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`deka %s

Usage:
  %s run <file.dk> [--mode plain|strict|strict_internal] [--policy host.yaml]
  %s check <file.dk>                    Typecheck without running.
  %s repl [--mode ...]                  Start the REPL.
  %s version                            Print the engine version.

`, deka.Version, appName, appName, appName, appName)
}

func parseMode(s string) (deka.Mode, bool) {
	switch deka.Mode(s) {
	case deka.ModePlain, deka.ModeStrict, deka.ModeStrictInternal:
		return deka.Mode(s), true
	}
	return "", false
}

func loadHost(policyPath string) (*deka.HostContext, int) {
	if policyPath == "" {
		return deka.NewHostContext(nil), 0
	}
	policy, err := deka.LoadHostPolicy(policyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return nil, 1
	}
	return deka.NewHostContext(policy), 0
}

/* ===========================
   run / check
   =========================== */

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	modeFlag := fs.String("mode", "strict", "execution mode")
	policyFlag := fs.String("policy", "", "host capability policy (YAML)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.dk> [--mode ...] [--policy ...]\n", appName)
		return 2
	}
	mode, ok := parseMode(*modeFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown mode %q\n", appName, *modeFlag)
		return 2
	}

	file := fs.Arg(0)
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}
	host, rc := loadHost(*policyFlag)
	if rc != 0 {
		return rc
	}

	root := filepath.Dir(file)
	ad := deka.NewAdapter(deka.FSLoader{Root: root}, host)
	res := ad.Run(string(src), mode, deka.RunContext{
		Cwd:       root,
		EntryName: filepath.Base(file),
	})
	fmt.Print(res.Stdout)
	if !res.OK {
		fmt.Fprintln(os.Stderr, red(res.Stderr))
		return 1
	}
	return 0
}

func cmdCheck(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s check <file.dk>\n", appName)
		return 2
	}
	file := args[0]
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	ast, perr := deka.Parse(string(src))
	if perr != nil {
		fmt.Fprintln(os.Stderr, deka.WrapErrorWithName(perr, filepath.Base(file), string(src)).Error())
		return 1
	}
	errs := deka.Check(ast, deka.NewUnitContext(), deka.ModeStrict)
	for _, te := range errs {
		fmt.Fprintln(os.Stderr, deka.WrapErrorWithName(te, filepath.Base(file), string(src)).Error())
	}
	if len(errs) > 0 {
		return 1
	}
	fmt.Printf("%s: ok\n", file)
	return 0
}

/* ===========================
   repl
   =========================== */

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	modeFlag := fs.String("mode", "plain", "execution mode")
	policyFlag := fs.String("policy", "", "host capability policy (YAML)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	mode, ok := parseMode(*modeFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown mode %q\n", appName, *modeFlag)
		return 2
	}
	host, rc := loadHost(*policyFlag)
	if rc != 0 {
		return rc
	}

	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ad := deka.NewAdapter(deka.FSLoader{Root: "."}, host)

	// Each entry re-runs the accumulated session so bindings persist; the
	// previously printed output is suppressed by offset.
	var session strings.Builder
	printed := 0

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(code)
		if strings.HasPrefix(trimmed, ":") {
			if strings.EqualFold(trimmed, ":quit") {
				return 0
			}
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}
		if trimmed == "" {
			continue
		}

		candidate := session.String() + code + "\n"
		res := ad.Run(candidate, mode, deka.RunContext{EntryName: "repl"})
		if !res.OK {
			fmt.Fprintln(os.Stderr, red(res.Stderr))
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
			continue
		}
		session.Reset()
		session.WriteString(candidate)
		if len(res.Stdout) > printed {
			fmt.Print(blue(res.Stdout[printed:]))
			if !strings.HasSuffix(res.Stdout, "\n") {
				fmt.Println()
			}
		}
		printed = len(res.Stdout)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
	return 0
}

// readByParseProbe accumulates lines until the buffer parses, so multi-line
// constructs continue on the secondary prompt.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := deka.Parse(src); perr == nil {
			return src, true
		} else if isIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// isIncomplete guesses whether a parse failure means "keep typing" rather
// than "this is wrong".
func isIncomplete(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unterminated") ||
		strings.Contains(msg, "unexpected end of input") ||
		strings.Contains(msg, "found end of input")
}
