// Command downtimectl manages planned downtime schedules on a scheduler server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/example/downtime-scheduler/internal/client"
	"github.com/example/downtime-scheduler/internal/downtime"
	"github.com/example/downtime-scheduler/internal/notify"
)

const defaultServer = "http://localhost:8080"

// errUsage marks errors whose message has already been printed with usage.
var errUsage = errors.New("usage error")

// reportedError wraps an error already delivered as a notification.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

type globalOptions struct {
	server   string
	user     string
	password string
	timezone string
	timeout  time.Duration
	noColor  bool
}

type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type cli struct {
	opts      globalOptions
	io        stdio
	formatter downtime.Formatter
	notifier  *notify.Notifier
}

type command struct {
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"list":          {summary: "list schedules", run: runList},
	"apply":         {summary: "create or update a schedule from a YAML file", run: runApply},
	"delete":        {summary: "delete a schedule", run: runDelete},
	"occurrences":   {summary: "list the windows of a schedule", run: runOccurrences},
	"active":        {summary: "list the schedules in effect", run: runActive},
	"template":      {summary: "print a blank schedule file", run: runTemplate},
	"hash-password": {summary: "hash an admin password read from stdin", run: runHashPassword},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr}, os.Getenv))
}

func run(ctx context.Context, args []string, std stdio, getenv func(string) string) int {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	fs := flag.NewFlagSet("downtimectl", flag.ContinueOnError)
	fs.SetOutput(std.err)
	var opts globalOptions
	fs.StringVar(&opts.server, "server", envOr(getenv, "DOWNTIMECTL_SERVER", defaultServer), "scheduler base URL")
	fs.StringVar(&opts.user, "user", getenv("DOWNTIMECTL_USER"), "admin user for schedule changes")
	fs.StringVar(&opts.password, "password", getenv("DOWNTIMECTL_PASSWORD"), "admin password for schedule changes")
	fs.StringVar(&opts.timezone, "tz", getenv("DOWNTIMECTL_TIMEZONE"), "IANA time zone for displayed times (default local)")
	fs.DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")
	fs.BoolVar(&opts.noColor, "no-color", getenv("NO_COLOR") != "", "disable colored output")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(std.err, "unknown command %q\n", rest[0])
		fs.Usage()
		return 2
	}

	loc := time.Local
	if opts.timezone != "" {
		l, err := time.LoadLocation(opts.timezone)
		if err != nil {
			fmt.Fprintf(std.err, "invalid time zone %q: %v\n", opts.timezone, err)
			return 2
		}
		loc = l
	}

	c := &cli{
		opts:      opts,
		io:        std,
		formatter: downtime.NewFormatter(loc),
		notifier:  notify.New(notify.Config{}, levelSplitSink(std.out, std.err, !opts.noColor)),
	}

	err := cmd.run(ctx, c, rest[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		var reported reportedError
		if !errors.As(err, &reported) {
			c.notifier.Error(err)
		}
		return 1
	}
}

// levelSplitSink prints errors to errOut and everything else to out.
func levelSplitSink(out, errOut io.Writer, colored bool) notify.Sink {
	newSink := notify.NewWriterSink
	if colored {
		newSink = notify.NewColorWriterSink
	}
	stdout := newSink(out)
	stderr := newSink(errOut)
	return notify.SinkFunc(func(n notify.Notification) {
		if n.Level == notify.LevelError {
			stderr.Send(n)
			return
		}
		stdout.Send(n)
	})
}

func (c *cli) client() (*client.Client, error) {
	return client.New(client.Options{
		BaseURL:  c.opts.server,
		User:     c.opts.user,
		Password: c.opts.password,
		Timeout:  c.opts.timeout,
	})
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.io.err)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	return nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func printUsage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "Usage: downtimectl [flags] <command> [command flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}
