package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default size limits for files considered for indexing.
const (
	DefaultMaxFileSize    int64 = 10 * 1024 * 1024
	DefaultMaxTotalSizeMB int64 = 500
	DefaultMaxFileCount         = 10000
)

// Default timing constants named in SPEC_FULL.md §4.0. The first three
// are the defaults that the KDL keys debounce_ms, max_batch_events and
// worker_idle_timeout_sec override. DefaultEdgeDropSample is not read by
// the mapper, which keeps its own limit of 5 (edgeDropSampleLimit).
const (
	DefaultWatchDebounceMs   = 3000
	DefaultWatchEventCap     = 8192
	DefaultWorkerIdleTimeout = 60 // seconds
	DefaultEdgeDropSample    = 5
)

type Config struct {
	Version      int
	Project      Project
	Index        Index
	Performance  Performance
	Queue        Queue
	Watch        Watch
	GraphDB      GraphDB
	FeatureFlags FeatureFlags
	Include      []string
	Exclude      []string
}

type Project struct {
	Root string
	Name string
}

type Index struct {
	MaxFileSize      int64
	MaxTotalSizeMB   int64
	MaxFileCount     int
	FollowSymlinks   bool
	SmartSizeControl bool
	PriorityMode     string // "recent", "small", "important"
	RespectGitignore bool   // process .gitignore files for additional exclusions
	WatchMode        bool   // enable file system watching for automatic reindexing
}

type Performance struct {
	MaxMemoryMB         int // maximum memory usage in MB
	MaxGoroutines       int // maximum number of goroutines for indexing
	ParallelFileWorkers int // 0 = auto-detect (NumCPU)
	IndexingTimeoutSec  int // per-run timeout for a full indexing pass
}

// Queue controls the C9 job queue & worker pool.
type Queue struct {
	WorkerIdleTimeoutSec int // workers exit after this many idle seconds (default 60)
	MaxPendingPerProject int // validated as positive; the dispatcher does not read it (its channel holds a fixed 1000 jobs and Dispatch blocks when full)
}

// Watch controls the C10 file watcher's debounce behavior.
type Watch struct {
	DebounceMs     int // window, counted from a batch's first fs event, after which the batch becomes one job (default 3000)
	MaxBatchEvents int // events accumulated before the debounce window force-flushes (default 8192)
}

// GraphDB controls the embedded bbolt-backed graph store (C6/C11).
type GraphDB struct {
	DataDir         string // directory holding per-project .kgdb files and per-workspace .manifest.kgdb files
	SyncWrites      bool   // fsync every bulk-load transaction (durability vs. throughput)
	SchemaVersion   int
}

// FeatureFlags controls optional behaviors and rollback capabilities.
type FeatureFlags struct {
	EnableMemoryLimits         bool // enable memory management and backpressure
	EnableGracefulDegradation  bool // enable fallback to basic features on errors
	EnableDetailedErrorLogging bool // enable detailed error context logging
	EnableFeatureFlagLogging   bool // log feature flag state on startup
}

// Load reads .kgindex.kdl from the directory containing path, merged over
// ~/.kgindex.kdl; the file name part of path is not used.
func Load(path string) (*Config, error) {
	return LoadWithRoot(path, filepath.Dir(path))
}

func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	// Step 1: load global base config from ~/.kgindex.kdl (if present)
	homeDir, err := os.UserHomeDir()
	var baseConfig *Config
	if err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	// Step 2: load project-specific config from the project directory
	var projectConfig *Config
	if kdlCfg, err := LoadKDL(searchDir); err == nil && kdlCfg != nil {
		projectConfig = kdlCfg
	} else if err != nil {
		return nil, err
	}

	// Step 3: merge (project overrides base, but preserves base exclusions)
	if baseConfig != nil && projectConfig != nil {
		return mergeConfigs(baseConfig, projectConfig), nil
	} else if projectConfig != nil {
		return projectConfig, nil
	} else if baseConfig != nil {
		baseConfig.Project.Root = searchDir
		return baseConfig, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	cfg := defaultConfig(cwd)
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

func defaultConfig(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Index: Index{
			MaxFileSize:      DefaultMaxFileSize,
			MaxTotalSizeMB:   DefaultMaxTotalSizeMB,
			MaxFileCount:     DefaultMaxFileCount,
			FollowSymlinks:   false,
			SmartSizeControl: true,
			PriorityMode:     "recent",
			RespectGitignore: true,
			WatchMode:        true,
		},
		Performance: Performance{
			MaxMemoryMB:         500,
			MaxGoroutines:       runtime.NumCPU(),
			ParallelFileWorkers: 0,
			IndexingTimeoutSec:  120,
		},
		Queue: Queue{
			WorkerIdleTimeoutSec: DefaultWorkerIdleTimeout,
			MaxPendingPerProject: 256,
		},
		Watch: Watch{
			DebounceMs:     DefaultWatchDebounceMs,
			MaxBatchEvents: DefaultWatchEventCap,
		},
		GraphDB: GraphDB{
			DataDir:       ".kgindex",
			SyncWrites:    true,
			SchemaVersion: 1,
		},
		FeatureFlags: FeatureFlags{
			EnableMemoryLimits:         true,
			EnableGracefulDegradation:  true,
			EnableDetailedErrorLogging: true,
			EnableFeatureFlagLogging:   true,
		},
		Include: []string{},
		Exclude: defaultExclusions(),
	}
}

// defaultExclusions returns the baseline language-agnostic exclusion globs:
// VCS metadata, dependency directories, build artifacts and common binary
// formats that are never indexable source.
func defaultExclusions() []string {
	return []string{
		"**/.git/**",
		"**/.*/**",

		"**/node_modules/**",
		"**/vendor/**",
		"**/bower_components/**",
		"**/jspm_packages/**",

		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**",
		"**/bin/**",
		"**/obj/**",
		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",
		"**/*.chunk.js",
		"**/*.min.map",

		"**/__pycache__/**",
		"**/*.pyc",

		"**/*.avif",
		"**/*.webp",
		"**/*.wasm",
		"**/*.woff",
		"**/*.woff2",
		"**/*.ttf",
		"**/*.eot",
		"**/*.otf",

		"**/*.mp4", "**/*.avi", "**/*.mov", "**/*.mkv", "**/*.webm",
		"**/*.mp3", "**/*.wav", "**/*.flac", "**/*.ogg",

		"**/*.doc", "**/*.docx", "**/*.xls", "**/*.xlsx",
		"**/*.ppt", "**/*.pptx", "**/*.pdf",

		"**/*.swp", "**/*.swo", "**/*~",

		"**/Thumbs.db",
		"**/desktop.ini",

		"**/logs/**",
		"**/*.log",
	}
}

// mergeConfigs merges a base config with a project config. The project
// config takes precedence; base exclusions are unioned in rather than
// discarded.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		excludeSet := make(map[string]bool, len(base.Exclude)+len(project.Exclude))
		for _, pattern := range base.Exclude {
			excludeSet[pattern] = true
		}
		for _, pattern := range project.Exclude {
			excludeSet[pattern] = true
		}
		merged.Exclude = make([]string, 0, len(excludeSet))
		for pattern := range excludeSet {
			merged.Exclude = append(merged.Exclude, pattern)
		}
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// EnrichExclusionsWithBuildArtifacts detects build output directories from
// language-specific project files and adds them to the exclusion list.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detector := NewBuildArtifactDetector(c.Project.Root)
	detectedPatterns := detector.DetectOutputDirectories()

	if len(detectedPatterns) > 0 {
		c.Exclude = append(c.Exclude, detectedPatterns...)
		c.Exclude = DeduplicatePatterns(c.Exclude)
	}
}
