package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from a .kgindex.kdl file in
// projectRoot.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".kgindex.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .kgindex.kdl: %w", err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	if cfg != nil && cfg.Project.Root != "" {
		var absRoot string
		if filepath.IsAbs(cfg.Project.Root) {
			absRoot = cfg.Project.Root
		} else {
			absRoot = filepath.Join(projectRoot, cfg.Project.Root)
		}
		cfg.Project.Root = filepath.Clean(absRoot)
	} else if cfg != nil {
		absRoot, err := filepath.Abs(projectRoot)
		if err == nil {
			cfg.Project.Root = absRoot
		} else {
			cfg.Project.Root = projectRoot
		}
	}

	return cfg, nil
}

// parseKDL parses the textual KDL document into a Config, starting from
// the same defaults LoadWithRoot would use so partially-specified files
// still produce a usable config.
func parseKDL(content string) (*Config, error) {
	defaultRoot, _ := os.Getwd()
	if defaultRoot == "" {
		defaultRoot = "."
	}

	cfg := defaultConfig(defaultRoot)
	cfg.Exclude = nil // an explicit exclude block replaces, rather than extends, defaults

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxFileSize = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Index.MaxFileSize = sz
						}
					}
				case "max_total_size_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxTotalSizeMB = int64(v)
					}
				case "max_file_count":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxFileCount = v
					}
				case "follow_symlinks":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.FollowSymlinks = b
					}
				case "smart_size_control":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.SmartSizeControl = b
					}
				case "priority_mode":
					if s, ok := firstStringArg(cn); ok {
						cfg.Index.PriorityMode = s
					}
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.RespectGitignore = b
					}
				case "watch_mode":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.WatchMode = b
					}
				}
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_memory_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.MaxMemoryMB = v
					}
				case "max_goroutines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.MaxGoroutines = v
					}
				case "parallel_file_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ParallelFileWorkers = v
					}
				case "indexing_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.IndexingTimeoutSec = v
					}
				}
			}
		case "queue":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "worker_idle_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Queue.WorkerIdleTimeoutSec = v
					}
				case "max_pending_per_project":
					if v, ok := firstIntArg(cn); ok {
						cfg.Queue.MaxPendingPerProject = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				case "max_batch_events":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.MaxBatchEvents = v
					}
				}
			}
		case "graphdb":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "data_dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.GraphDB.DataDir = s
					}
				case "sync_writes":
					if b, ok := firstBoolArg(cn); ok {
						cfg.GraphDB.SyncWrites = b
					}
				}
			}
		case "feature_flags":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enable_memory_limits":
					if b, ok := firstBoolArg(cn); ok {
						cfg.FeatureFlags.EnableMemoryLimits = b
					}
				case "enable_graceful_degradation":
					if b, ok := firstBoolArg(cn); ok {
						cfg.FeatureFlags.EnableGracefulDegradation = b
					}
				case "enable_detailed_error_logging":
					if b, ok := firstBoolArg(cn); ok {
						cfg.FeatureFlags.EnableDetailedErrorLogging = b
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = collectStringArgs(n)
		}
	}

	if cfg.Exclude == nil {
		cfg.Exclude = defaultExclusions()
	}

	cfg.EnrichExclusionsWithBuildArtifacts()

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
