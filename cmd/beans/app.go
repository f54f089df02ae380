package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/xraph/beans/internal/config"
	"github.com/xraph/beans/internal/definitions"
	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/di"
	"github.com/xraph/beans/internal/logger"
)

var errCheckFailed = errors.New("check failed")

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "beans",
		Usage:     "check and inspect bean definition files",
		Version:   fmt.Sprintf("%s (%s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,
		// Errors are reported by main, which owns the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:      "order",
				Usage:     "print the construction order",
				ArgsUsage: "FILE",
				Action:    orderAction,
			},
			{
				Name:      "check",
				Usage:     "validate scopes, injection styles and dependency cycles",
				ArgsUsage: "FILE",
				Action:    checkAction,
			},
			{
				Name:      "inspect",
				Usage:     "print every bean with its scope and dependencies",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
				},
				Action: inspectAction,
			},
			{
				Name:      "serve",
				Usage:     "serve the bean graph as JSON over HTTP",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "listen address"},
				},
				Action: serveAction,
			},
		},
	}
}

// load reads the definitions named by the first argument and builds their
// graph.
func load(c *cli.Context) ([]definitions.Definition, *descriptor.Store, error) {
	path := c.Args().First()
	if path == "" {
		return nil, nil, fmt.Errorf("missing definitions file")
	}
	defs, err := definitions.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	store, err := definitions.Graph(defs)
	if err != nil {
		return nil, nil, err
	}
	return defs, store, nil
}

func orderAction(c *cli.Context) error {
	_, store, err := load(c)
	if err != nil {
		return err
	}
	order, err := di.ResolveOrder(store)
	if err != nil {
		return err
	}
	for i, name := range order {
		fmt.Fprintf(c.App.Writer, "%s %s\n", Gray(fmt.Sprintf("%3d", i+1)), name)
	}
	return nil
}

func checkAction(c *cli.Context) error {
	defs, store, err := load(c)
	if err == nil {
		_, err = di.ResolveOrder(store)
	}
	if err != nil {
		fmt.Fprintf(c.App.Writer, "%s %v\n", Red("✗"), err)
		return errCheckFailed
	}

	unresolved := 0
	for _, def := range defs {
		for _, dep := range def.Dependencies() {
			if _, ok := store.Target(dep); !ok {
				unresolved++
				fmt.Fprintf(c.App.Writer, "%s %s references %s, which is not defined here\n",
					Yellow("!"), def.Name, dep)
			}
		}
	}

	fmt.Fprintf(c.App.Writer, "%s %d beans, no cycles", Green("✓"), len(defs))
	if unresolved > 0 {
		fmt.Fprintf(c.App.Writer, ", %d external references", unresolved)
	}
	fmt.Fprintln(c.App.Writer)
	return nil
}

func inspectAction(c *cli.Context) error {
	_, store, err := load(c)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Tracing.Enabled = false
	container, err := di.New(store, di.WithConfig(cfg), di.WithLogger(logger.NewNoopLogger()))
	if err != nil {
		return err
	}
	beans := container.Beans()

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(beans)
	}

	for _, b := range beans {
		fmt.Fprintf(c.App.Writer, "%s %s %s\n", Bold(b.Name), Cyan(b.Scope), Gray(b.Type))
		if len(b.Dependencies) > 0 {
			fmt.Fprintf(c.App.Writer, "    depends on  %s\n", strings.Join(b.Dependencies, ", "))
		}
		if len(b.Deferred) > 0 {
			fmt.Fprintf(c.App.Writer, "    provides    %s\n", strings.Join(b.Deferred, ", "))
		}
	}
	return nil
}
