// Command autoforge drives a workspace build sequence end to end: it
// resolves a solution package, loads its sequence document, and runs the
// declared steps while reporting progress on a single in-place line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/emichael72/auto-forge/internal/config"
	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/platform"
	"github.com/emichael72/auto-forge/internal/progress"
	"github.com/emichael72/auto-forge/internal/sequence"
	"github.com/emichael72/auto-forge/internal/style"
	"github.com/emichael72/auto-forge/internal/supervisor"
	"github.com/emichael72/auto-forge/internal/variables"
)

const version = "0.1.0"

type cliFlags struct {
	workspacePath   string
	solutionPackage string
	createWorkspace bool
	automationMacro string
	remoteDebugging string
	proxyServer     string
	gitToken        string
	showVersion     bool
}

// parseFlags mirrors tools/si's usage conventions but uses the standard
// library flag.FlagSet; both the hyphen and underscore spelling of
// --solution-package / --solution_package are accepted aliases for the
// same field, matching the rest of the CLI's inconsistent flag naming.
func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("autoforge", flag.ContinueOnError)
	f := &cliFlags{createWorkspace: true}

	fs.StringVar(&f.workspacePath, "workspace-path", "", "target workspace directory")
	fs.StringVar(&f.workspacePath, "w", "", "shorthand for --workspace-path")

	fs.StringVar(&f.solutionPackage, "solution-package", "", "directory containing solution.jsonc, or the sequence document file itself")
	fs.StringVar(&f.solutionPackage, "solution_package", "", "alias for --solution-package")
	fs.StringVar(&f.solutionPackage, "p", "", "shorthand for --solution-package")

	fs.BoolVar(&f.createWorkspace, "create-workspace", true, "create the workspace if it does not exist")
	noCreate := fs.Bool("no-create-workspace", false, "fail instead of creating a missing workspace")

	fs.StringVar(&f.automationMacro, "automation-macro", "", "path to a JSON file describing automated actions")
	fs.StringVar(&f.remoteDebugging, "remote-debugging", "", "HOST:PORT for a remote debugger")
	fs.StringVar(&f.proxyServer, "proxy-server", "", "HOST:PORT proxy for outbound HTTP")
	fs.StringVar(&f.gitToken, "git-token", "", "bearer token for authenticated git/URL fetches")

	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fs.BoolVar(&f.showVersion, "v", false, "shorthand for --version")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *noCreate {
		f.createWorkspace = false
	}
	return f, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, style.Heading("autoforge")+" — workspace build-sequence driver")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "  -w, --workspace-path PATH     target workspace (required)")
	fmt.Fprintln(os.Stderr, "  -p, --solution-package SRC    solution directory or sequence document file (required)")
	fmt.Fprintln(os.Stderr, "      --create-workspace        create the workspace if missing (default)")
	fmt.Fprintln(os.Stderr, "      --no-create-workspace     fail instead of creating it")
	fmt.Fprintln(os.Stderr, "      --automation-macro PATH   automated action script")
	fmt.Fprintln(os.Stderr, "      --remote-debugging H:P    remote debugger endpoint")
	fmt.Fprintln(os.Stderr, "      --proxy-server H:P        outbound proxy")
	fmt.Fprintln(os.Stderr, "      --git-token TOKEN         bearer token for git/URL fetches")
	fmt.Fprintln(os.Stderr, "  -v, --version                 print version and exit")
}

// resolveSolutionPackage returns an http(s) URL unchanged and any other
// source as an absolute path that must exist. URLs are not fetched and ZIP
// archives are not extracted: loadSequenceDocument reads a directory's
// solution.jsonc, or else the named file, as the sequence document.
func resolveSolutionPackage(src string) (string, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src, nil
	default:
		abs, err := filepath.Abs(src)
		if err != nil {
			return "", forgeerr.Wrap(forgeerr.ErrInvalidArgument, "resolve solution package %q: %v", src, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", forgeerr.Wrap(forgeerr.ErrNotFound, "solution package %q: %v", src, err)
		}
		return abs, nil
	}
}

// solutionDir returns the directory holding a solution package's ancillary
// files (variables.toml, env.sh): the package itself if it's already a
// directory, otherwise its parent.
func solutionDir(solutionPackage string) string {
	if info, err := os.Stat(solutionPackage); err == nil && info.IsDir() {
		return solutionPackage
	}
	return filepath.Dir(solutionPackage)
}

func loadSequenceDocument(solutionPackage string) (*sequence.Document, error) {
	candidate := solutionPackage
	if info, err := os.Stat(solutionPackage); err == nil && info.IsDir() {
		candidate = filepath.Join(solutionPackage, "solution.jsonc")
	}
	raw, err := os.ReadFile(candidate)
	if err != nil {
		return nil, forgeerr.Wrap(forgeerr.ErrNotFound, "read sequence document %q: %v", candidate, err)
	}
	return sequence.Load(raw)
}

func run(args []string) int {
	flags, err := parseFlags(args)
	if err != nil {
		usage()
		return 1
	}

	if flags.showVersion {
		fmt.Println("autoforge " + version)
		return 0
	}

	if flags.workspacePath == "" || flags.solutionPackage == "" {
		fmt.Fprintln(os.Stderr, style.Error("autoforge: --workspace-path and --solution-package are required"))
		usage()
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	interrupted := false
	go func() {
		<-sigCh
		interrupted = true
		cancel()
	}()

	solutionPackage, err := resolveSolutionPackage(flags.solutionPackage)
	if err != nil {
		fmt.Fprintln(os.Stderr, style.Error(err.Error()))
		return 1
	}

	prefs, err := config.LoadPreferences()
	if err != nil {
		fmt.Fprintln(os.Stderr, style.Error(err.Error()))
		return 1
	}
	proxyServer, gitToken := prefs.ApplyDefaults(flags.proxyServer, flags.gitToken)

	vars := variables.New()
	_ = vars.Add("WORKSPACE_PATH", flags.workspacePath, true, false, flags.createWorkspace, variables.FolderWorkspace, "workspace root")
	_ = vars.Add("SCRIPTS_BASE", filepath.Join(flags.workspacePath, "scripts"), true, false, true, variables.FolderScripts, "scripts base")
	_ = vars.Add("BUILD_LOGS", filepath.Join(flags.workspacePath, "logs"), true, false, true, variables.FolderBuild, "build logs")

	varsFile, err := config.LoadVariablesTOML(filepath.Join(solutionDir(solutionPackage), "variables.toml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, style.Error(err.Error()))
		return 1
	}
	if err := config.SeedStore(vars, varsFile); err != nil {
		fmt.Fprintln(os.Stderr, style.Error(err.Error()))
		return 1
	}

	doc, err := loadSequenceDocument(solutionPackage)
	if err != nil {
		fmt.Fprintln(os.Stderr, style.Error(err.Error()))
		return 1
	}

	addTimePrefix := true
	if doc.StatusAddTimePrefix != nil {
		addTimePrefix = *doc.StatusAddTimePrefix
	}
	tracker := progress.New(progress.Options{
		TitleLength:   doc.StatusTitleLength,
		AddTimePrefix: addTimePrefix,
		HideCursor:    true,
	})

	var interactivePatterns []string
	if len(prefs.InteractiveCommand) > 0 {
		interactivePatterns = prefs.InteractiveCommand
	}

	services := &platform.Services{
		Vars:       vars,
		Supervisor: supervisor.New(interactivePatterns),
		GitToken:   gitToken,
		ProxyURL:   proxyServer,
	}

	runner := sequence.NewRunner(platform.Default(), services, tracker)

	if err := runner.Run(ctx, doc); err != nil {
		if interrupted {
			fmt.Fprintln(os.Stderr, style.Warn("autoforge: interrupted"))
			return 130
		}
		fmt.Fprintln(os.Stderr, style.Error("Error"))
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	srcDir := solutionDir(solutionPackage)
	envScript := filepath.Join(srcDir, "env.sh")
	if _, statErr := os.Stat(envScript); statErr != nil {
		envScript = ""
	}

	workspacePath := flags.workspacePath
	if f, found := vars.Get("WORKSPACE_PATH"); found {
		workspacePath = f.Value
	}

	finalizeErr := sequence.Finalize(sequence.FinalizeOptions{
		WorkspacePath:   workspacePath,
		SolutionSource:  srcDir,
		ScriptsBase:     filepath.Join(workspacePath, "scripts"),
		BuildLogs:       filepath.Join(workspacePath, "logs"),
		EnvScriptSource: envScript,
		SolutionName:    filepath.Base(srcDir),
	})
	if finalizeErr != nil {
		fmt.Fprintln(os.Stderr, style.Error("autoforge: finalize: "+finalizeErr.Error()))
		return 1
	}

	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
