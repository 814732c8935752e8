package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/duynguyendang/contentgraph/pkg/sequencer"
	"github.com/duynguyendang/contentgraph/pkg/server"
	"github.com/duynguyendang/contentgraph/pkg/text"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Inspect and manipulate contentgraph names, paths and values",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&a.root, "root", "", "Workspace root directory (overrides the config)")
	flags.StringVarP(&a.workspace, "workspace", "w", "", "Workspace to operate on")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringSliceVar(&a.envFiles, "env-file", nil, ".env files loaded into the environment")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
		pathCmd(a),
		nameCmd(a),
		nsCmd(a),
		convertCmd(a),
		propertyCmd(a),
		binaryCmd(a),
		sequenceCmd(a),
		serveCmd(a),
	)
	closeAfterRun(cmd, a)
	return cmd
}

// closeAfterRun wraps every RunE so open workspaces are closed even when the
// command fails. PersistentPostRun is skipped on errors.
func closeAfterRun(cmd *cobra.Command, a *app) {
	for _, sub := range cmd.Commands() {
		if run := sub.RunE; run != nil {
			sub.RunE = func(cmd *cobra.Command, args []string) error {
				defer a.close()
				return run(cmd, args)
			}
		}
		closeAfterRun(sub, a)
	}
}

func pathCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "path", Short: "Path algebra"}

	// pathOp parses every argument and prints the result of fn.
	pathOp := func(use, short string, nargs int, fn func(vf *value.ValueFactories, ps []*value.Path) (*value.Path, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(nargs),
			RunE: func(cmd *cobra.Command, args []string) error {
				vf, _, err := a.values()
				if err != nil {
					return err
				}
				ps := make([]*value.Path, len(args))
				for i, arg := range args {
					if ps[i], err = vf.Paths().CreateString(arg, nil); err != nil {
						return err
					}
				}
				p, err := fn(vf, ps)
				if err != nil {
					return err
				}
				return printValue(cmd, vf, p)
			},
		}
	}

	cmd.AddCommand(
		pathOp("normalize <path>", "Remove self and parent references", 1,
			func(_ *value.ValueFactories, ps []*value.Path) (*value.Path, error) { return ps[0].NormalizedPath() }),
		pathOp("canonical <path>", "Normalize an absolute path", 1,
			func(_ *value.ValueFactories, ps []*value.Path) (*value.Path, error) { return ps[0].CanonicalPath() }),
		pathOp("resolve <base> <relative>", "Resolve a relative path against a base", 2,
			func(_ *value.ValueFactories, ps []*value.Path) (*value.Path, error) { return ps[0].Resolve(ps[1]) }),
		pathOp("relative <from> <path>", "Compute the relative path from one path to another", 2,
			func(_ *value.ValueFactories, ps []*value.Path) (*value.Path, error) { return ps[1].RelativeTo(ps[0]) }),
		pathOp("common <path> <path>", "Find the lowest common ancestor", 2,
			func(_ *value.ValueFactories, ps []*value.Path) (*value.Path, error) { return ps[0].CommonAncestor(ps[1]) }),
		&cobra.Command{
			Use:   "ancestors <path>",
			Short: "List the ancestors of a path, nearest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				vf, _, err := a.values()
				if err != nil {
					return err
				}
				p, err := vf.Paths().CreateString(args[0], nil)
				if err != nil {
					return err
				}
				for parent := p.Parent(); parent != nil; parent = parent.Parent() {
					if err := printValue(cmd, vf, parent); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)
	return cmd
}

func nameCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "name", Short: "Qualified names"}
	cmd.AddCommand(&cobra.Command{
		Use:   "parse <name>...",
		Short: "Parse names and print their expanded and prefixed forms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vf, _, err := a.values()
			if err != nil {
				return err
			}
			for _, arg := range args {
				n, err := vf.Names().CreateString(arg, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n",
					n.StringWith(nil, text.NoOp, nil),
					n.StringWith(vf.Registry(), text.NoOp, nil))
			}
			return nil
		},
	})
	return cmd
}

func nsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "ns", Short: "Workspace namespaces"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the namespaces of the workspace",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.openManager()
				if err != nil {
					return err
				}
				ws, err := m.Workspace(a.workspaceID())
				if err != nil {
					return err
				}
				for _, ns := range ws.Registry().Namespaces() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ns.Prefix, ns.URI)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "register <prefix> <uri>",
			Short: "Bind a prefix to a namespace URI",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.openManager()
				if err != nil {
					return err
				}
				ws, err := m.Workspace(a.workspaceID())
				if err != nil {
					return err
				}
				previous, err := ws.Registry().Register(args[0], args[1])
				if err != nil {
					return err
				}
				if previous != "" && previous != args[1] {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was bound to %s\n", args[0], previous)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "unregister <uri>",
			Short: "Remove the binding of a namespace URI",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.openManager()
				if err != nil {
					return err
				}
				ws, err := m.Workspace(a.workspaceID())
				if err != nil {
					return err
				}
				removed, err := ws.Registry().Unregister(args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%s is not registered", args[0])
				}
				return nil
			},
		},
	)
	return cmd
}

func convertCmd(a *app) *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "convert <value>...",
		Short: "Convert values to a property type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := value.ParsePropertyType(typeName)
			if err != nil {
				return err
			}
			vf, _, err := a.values()
			if err != nil {
				return err
			}
			for _, arg := range args {
				v, err := vf.Convert(typ, arg)
				if err != nil {
					return err
				}
				if err := printValue(cmd, vf, v); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "String", "Target property type")
	return cmd
}

func propertyCmd(a *app) *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "property <name> [value]...",
		Short: "Build a property, expanding ${...} references in its values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := value.ParsePropertyType(typeName)
			if err != nil {
				return err
			}
			vf, props, err := a.values()
			if err != nil {
				return err
			}
			name, err := vf.Names().CreateString(args[0], nil)
			if err != nil {
				return err
			}
			values := make([]any, len(args)-1)
			for i, arg := range args[1:] {
				values[i] = arg
			}
			p, err := props.CreateTyped(name, typ, values...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.StringWith(vf.Registry()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "String", "Property type")
	return cmd
}

func binaryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "binary", Short: "Workspace binary content"}

	var out string
	get := &cobra.Command{
		Use:   "get <hash>",
		Short: "Write stored content to stdout or --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("malformed hash: %w", err)
			}
			m, err := a.openManager()
			if err != nil {
				return err
			}
			ws, err := m.Workspace(a.workspaceID())
			if err != nil {
				return err
			}
			b, err := ws.Binaries().Get(hash)
			if err != nil {
				return err
			}
			data, err := b.Bytes()
			if err != nil {
				return err
			}
			if out != "" {
				return os.WriteFile(out, data, 0644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	get.Flags().StringVarP(&out, "out", "o", "", "Output file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "put <file>...",
			Short: "Store files and print their hashes",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.openManager()
				if err != nil {
					return err
				}
				ws, err := m.Workspace(a.workspaceID())
				if err != nil {
					return err
				}
				for _, path := range args {
					b, err := value.NewFileBinary(path)
					if err != nil {
						return err
					}
					hash, err := ws.Binaries().Put(b)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%x\t%s\t%s\n", hash, b, path)
				}
				return nil
			},
		},
		get,
	)
	return cmd
}

func sequenceCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "sequence <file>",
		Short: "Extract KEY=VALUE entries from a file and print the resulting nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vf, props, err := a.values()
			if err != nil {
				return err
			}
			if at == "" {
				at = "/" + filepath.Base(args[0])
			}
			input, err := vf.Paths().CreateString(at, nil)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			out := sequencer.NewMemoryOutput(props.Factory)
			sc := &sequencer.Context{Values: vf, InputPath: input}
			if err := (sequencer.PropertiesSequencer{}).Sequence(cmd.Context(), f, out, sc); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, p := range out.Paths() {
				if err := printValue(cmd, vf, p); err != nil {
					return err
				}
				for _, prop := range out.Properties(p) {
					fmt.Fprintf(w, "  %s\n", prop.StringWith(vf.Registry()))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Input node path (default: /<file name>)")
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			gin.SetMode(a.cfg.Server.Mode)
			m, err := a.openManager()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.NewServer(m).Serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func printValue(cmd *cobra.Command, vf *value.ValueFactories, v any) error {
	s, err := vf.Strings().Create(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
	return err
}
