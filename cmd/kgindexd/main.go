package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kgraph-dev/kgindex/internal/api"
	"github.com/kgraph-dev/kgindex/internal/changes"
	"github.com/kgraph-dev/kgindex/internal/config"
	"github.com/kgraph-dev/kgindex/internal/executor"
	"github.com/kgraph-dev/kgindex/internal/queue"
	"github.com/kgraph-dev/kgindex/internal/version"
	"github.com/kgraph-dev/kgindex/internal/watch"
	"github.com/kgraph-dev/kgindex/internal/workspace"
	"github.com/kgraph-dev/kgindex/pkg/pathutil"
)

// loadConfigWithOverrides loads configuration and applies CLI flag
// overrides, the same two-step shape the teacher's cmd/lci/main.go uses.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	if rootFlag := c.String("root"); rootFlag != "" && configPath == ".kgindex.kdl" {
		configPath = filepath.Join(rootFlag, ".kgindex.kdl")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if dataDir := c.String("data-dir"); dataDir != "" {
		cfg.GraphDB.DataDir = dataDir
	}

	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "kgindexd",
		Usage:                  "source-code knowledge-graph indexer",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   ".kgindex.kdl",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root directory to index (overrides config)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding per-project .kgdb graph databases (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "Run a full index of the workspace and exit",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}

					manifest, err := workspace.Open(cfg, cfg.Project.Root)
					if err != nil {
						return fmt.Errorf("opening workspace manifest: %w", err)
					}
					defer manifest.Close()

					ex := executor.New(cfg)
					ex.Manifest = manifest

					stats, err := ex.ExecuteWorkspaceIndexing(context.Background(), cfg.Project.Root)
					if err != nil {
						return fmt.Errorf("indexing %s: %w", cfg.Project.Root, err)
					}

					return json.NewEncoder(os.Stdout).Encode(stats)
				},
			},
			{
				Name:  "status",
				Usage: "Print the indexing status of every project in a workspace",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}

					manifest, err := workspace.Open(cfg, cfg.Project.Root)
					if err != nil {
						return fmt.Errorf("opening workspace manifest: %w", err)
					}
					defer manifest.Close()

					infos, err := manifest.ListAllProjects()
					if err != nil {
						return err
					}

					report := struct {
						WorkspaceStatus workspace.Status        `json:"workspace_status"`
						LastIndexedAt   time.Time               `json:"last_indexed_at"`
						Projects        []workspace.ProjectInfo `json:"projects"`
					}{
						WorkspaceStatus: workspace.RollupStatus(infos),
						LastIndexedAt:   workspace.RollupLastIndexedAt(infos),
						Projects:        displayProjects(infos, cfg.Project.Root),
					}
					return json.NewEncoder(os.Stdout).Encode(report)
				},
			},
			{
				Name:  "serve",
				Usage: "Run the job queue, file watcher and HTTP API as a long-lived process",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "HTTP listen address",
						Value: ":8088",
					},
				},
				Action: serveCommand,
			},
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "kgindexd: %v\n", err)
		os.Exit(1)
	}
}

// displayProjects returns a copy of infos with ProjectPath rewritten
// relative to workspaceRoot, so `status` output reads like paths a user
// typed rather than the absolute paths the manifest stores internally.
func displayProjects(infos []workspace.ProjectInfo, workspaceRoot string) []workspace.ProjectInfo {
	out := make([]workspace.ProjectInfo, len(infos))
	for i, info := range infos {
		info.ProjectPath = pathutil.ToRelative(info.ProjectPath, workspaceRoot)
		out[i] = info
	}
	return out
}

// serveCommand wires C7 (executor), C8/C9 (change classification + job
// queue), C10 (watcher) and the HTTP API together around one workspace,
// the daemon shape spec.md §1 names as the system's primary mode.
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	manifest, err := workspace.Open(cfg, cfg.Project.Root)
	if err != nil {
		return fmt.Errorf("opening workspace manifest: %w", err)
	}
	defer manifest.Close()

	ex := executor.New(cfg)
	ex.Manifest = manifest

	idleTimeout := time.Duration(cfg.Queue.WorkerIdleTimeoutSec) * time.Second
	if idleTimeout <= 0 {
		idleTimeout = time.Duration(config.DefaultWorkerIdleTimeout) * time.Second
	}

	dispatcher := queue.NewDispatcher(func(ctx context.Context, job queue.Job) error {
		return runJob(ctx, ex, job)
	}, idleTimeout)
	defer dispatcher.Shutdown()

	watcher := watch.New(cfg, dispatcher)
	if err := watcher.WatchWorkspace(cfg.Project.Root); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.Project.Root, err)
	}
	defer watcher.Stop()

	if _, err := dispatcher.Dispatch(context.Background(), queue.IndexWorkspaceFolder{
		WorkspaceFolderPath: cfg.Project.Root,
		Pri:                 queue.PriorityNormal,
	}); err != nil {
		return fmt.Errorf("scheduling initial index: %w", err)
	}

	server := api.NewServer(cfg, dispatcher)
	addr := c.String("addr")

	go func() {
		log.Printf("kgindexd: serving on %s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("kgindexd: http server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Printf("kgindexd: shutting down")
	return server.Shutdown()
}

// runJob dispatches one queue.Job to the matching executor operation,
// the handler half of C9's Dispatcher/Handler split.
func runJob(ctx context.Context, ex *executor.Executor, job queue.Job) error {
	switch j := job.(type) {
	case queue.IndexWorkspaceFolder:
		_, err := ex.ExecuteWorkspaceIndexing(ctx, j.WorkspaceFolderPath)
		return err
	case queue.ReindexWorkspaceFolderWithWatchedFiles:
		paths := make([]string, 0, len(j.WorkspaceChanges))
		for p := range j.WorkspaceChanges {
			paths = append(paths, p)
		}
		changed := changes.FromWatcherPaths(j.WorkspaceFolderPath, paths)
		_, err := ex.ExecuteIncremental(ctx, j.WorkspaceFolderPath, changed)
		return err
	default:
		return fmt.Errorf("runJob: unsupported job type %T", job)
	}
}
