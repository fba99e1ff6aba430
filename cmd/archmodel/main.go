package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritzau/archmodel/pkg/analysis"
	"github.com/ritzau/archmodel/pkg/compiler"
	"github.com/ritzau/archmodel/pkg/config"
	"github.com/ritzau/archmodel/pkg/idgen"
	"github.com/ritzau/archmodel/pkg/logging"
	"github.com/ritzau/archmodel/pkg/model"
	"github.com/ritzau/archmodel/pkg/output"
	"github.com/ritzau/archmodel/pkg/project"
	"github.com/ritzau/archmodel/pkg/pubsub"
	"github.com/ritzau/archmodel/pkg/session"
	"github.com/ritzau/archmodel/pkg/web"
	"github.com/spf13/pflag"
)

const usage = `Usage: archmodel <command> [flags]

Commands:
  init      create a project file with the default ontology
  compile   write the generated script to stdout (or --output)
  check     print an analysis report; exits 1 if the model has errors
  serve     serve the editing API over HTTP

Run 'archmodel <command> --help' for the flags of a command.
`

// Debounce settings for --watch
const (
	watchQuietPeriod = 200 * time.Millisecond
	watchMaxWait     = 2 * time.Second
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "init":
		err = runInit(args)
	case "compile":
		err = runCompile(args)
	case "check":
		err = runCheck(args)
	case "serve":
		err = runServe(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		logging.Fatal("command failed", "error", err)
	}
}

// setup parses the common flags of a command, loads the configuration and
// configures logging
func setup(fs *pflag.FlagSet, args []string) (*config.Config, error) {
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Verbosity)
	if err != nil {
		return nil, err
	}
	logging.Setup(logging.Options{Level: level, JSON: cfg.JSONLogs})
	logging.Debug("configuration loaded", "project", cfg.Project, "port", cfg.Port)
	return cfg, nil
}

func runInit(args []string) error {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	name := fs.String("name", "", "project name")
	force := fs.Bool("force", false, "overwrite an existing project file")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Project); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfg.Project)
	}

	state := model.NewState()
	if *name != "" {
		state.ProjectName = *name
	}
	if _, err := project.Save(cfg.Project, state); err != nil {
		return err
	}
	logging.Info("created project", "path", cfg.Project)
	return nil
}

func runCompile(args []string) error {
	fs := pflag.NewFlagSet("compile", pflag.ContinueOnError)
	out := fs.StringP("output", "o", "", "write the script to this file instead of stdout")
	stamp := fs.Bool("timestamp", false, "add the generation time to the header")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	state, _, err := project.Load(cfg.Project)
	if err != nil {
		return err
	}

	opts := compiler.Options{Title: cfg.Title, ProjectName: state.ProjectName}
	if *stamp {
		opts.GeneratedAt = time.Now()
	}
	script := compiler.CompileState(state, opts) + "\n"

	if *out == "" {
		_, err := fmt.Fprint(os.Stdout, script)
		return err
	}
	if err := os.WriteFile(*out, []byte(script), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	logging.Info("wrote script", "path", *out, "bytes", len(script))
	return nil
}

func runCheck(args []string) error {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	state, _, err := project.Load(cfg.Project)
	if err != nil {
		return err
	}

	report := analysis.Analyze(state)
	output.PrintModelReport(os.Stdout, state.ProjectName, report)
	if !report.OK() {
		os.Exit(1)
	}
	return nil
}

func runServe(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := pubsub.NewSSEPublisher()
	publisher.ConfigureSessionTopics(cfg.HistoryLimit)
	defer publisher.Close()

	sess, err := session.Open(session.Options{
		Path:         cfg.Project,
		Autosave:     cfg.Autosave,
		HistoryLimit: cfg.HistoryLimit,
		Title:        cfg.Title,
		Publisher:    publisher,
		IDs:          idgen.NewUUID(),
	})
	if err != nil {
		return err
	}

	if cfg.Watch {
		if err := sess.Watch(ctx, watchQuietPeriod, watchMaxWait); err != nil {
			// The file may not exist yet; editing still works without the watch
			logging.Warn("not watching project file", "error", err)
		}
	}

	return web.NewServer(sess, publisher).Start(ctx, cfg.Port)
}
