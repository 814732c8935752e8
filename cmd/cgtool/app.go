package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/duynguyendang/contentgraph/internal/config"
	"github.com/duynguyendang/contentgraph/internal/manager"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/property"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// app holds the global flags and what they resolve to.
type app struct {
	configPath string
	root       string
	workspace  string
	logLevel   string
	envFiles   []string

	cfg     *config.Config
	props   map[string]string
	manager *manager.Manager
}

// setup loads .env files, the configuration and the logger.
func (a *app) setup() error {
	level := slog.LevelWarn
	switch strings.ToLower(a.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(a.envFiles) > 0 {
		if err := godotenv.Load(a.envFiles...); err != nil {
			return fmt.Errorf("load env files: %w", err)
		}
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.root != "" {
		cfg.Workspace.Root = a.root
	}
	a.cfg = cfg

	base := ""
	if a.configPath != "" {
		base = filepath.Dir(a.configPath)
	}
	a.props, err = cfg.SystemProperties(base)
	return err
}

// openManager opens the workspace manager on first use.
func (a *app) openManager() (*manager.Manager, error) {
	if a.manager != nil {
		return a.manager, nil
	}
	m, err := manager.New(a.cfg, a.props)
	if err != nil {
		return nil, err
	}
	a.manager = m
	return m, nil
}

func (a *app) close() {
	if a.manager != nil {
		if err := a.manager.CloseAll(); err != nil {
			slog.Error("failed to close workspaces", "error", err)
		}
		a.manager = nil
	}
}

// values returns factories for commands that only need names and paths.
// Without --workspace they run on a scratch registry seeded from the
// configuration.
func (a *app) values() (*value.ValueFactories, *property.SystemFactory, error) {
	if a.workspace != "" {
		m, err := a.openManager()
		if err != nil {
			return nil, nil, err
		}
		sess, err := m.Session(a.workspace)
		if err != nil {
			return nil, nil, err
		}
		return sess.Values, sess.Properties, nil
	}

	reg := namespace.NewSimpleRegistry(
		namespace.WithPrefixTemplate(a.cfg.Namespaces.PrefixTemplate),
		namespace.WithNamespaces(a.cfg.Namespaces.Register...),
	)
	opts, err := a.cfg.ValueOptions()
	if err != nil {
		return nil, nil, err
	}
	vf := value.New(reg, opts...)
	return vf, property.NewSystemFactory(vf, property.WithProperties(a.props)), nil
}

func (a *app) workspaceID() string {
	if a.workspace != "" {
		return a.workspace
	}
	return "default"
}
