package config

import (
	"errors"
	"fmt"
	"runtime"

	kgerrors "github.com/kgraph-dev/kgindex/internal/errors"
)

// Validator validates configuration and fills in smart defaults.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Returns a ProjectFatal CodeGraphError on the first failing section.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return kgerrors.ProjectFatal("config", "validate_project", err)
	}

	if err := v.validateIndexConfig(&cfg.Index); err != nil {
		return kgerrors.ProjectFatal("config", "validate_index", err)
	}

	if err := v.validatePerformanceConfig(&cfg.Performance); err != nil {
		return kgerrors.ProjectFatal("config", "validate_performance", err)
	}

	if err := v.validateQueueConfig(&cfg.Queue); err != nil {
		return kgerrors.ProjectFatal("config", "validate_queue", err)
	}

	if err := v.validateWatchConfig(&cfg.Watch); err != nil {
		return kgerrors.ProjectFatal("config", "validate_watch", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateIndexConfig(index *Index) error {
	if index.MaxFileSize <= 0 {
		return fmt.Errorf("MaxFileSize must be positive, got %d", index.MaxFileSize)
	}
	if index.MaxTotalSizeMB <= 0 {
		return fmt.Errorf("MaxTotalSizeMB must be positive, got %d", index.MaxTotalSizeMB)
	}
	if index.MaxFileCount <= 0 {
		return fmt.Errorf("MaxFileCount must be positive, got %d", index.MaxFileCount)
	}
	if index.MaxFileSize > 100*1024*1024 {
		return fmt.Errorf("MaxFileSize should not exceed 100MB, got %d", index.MaxFileSize)
	}
	return nil
}

func (v *Validator) validatePerformanceConfig(perf *Performance) error {
	if perf.MaxMemoryMB < 100 {
		return fmt.Errorf("MaxMemoryMB must be at least 100MB, got %d", perf.MaxMemoryMB)
	}
	if perf.MaxGoroutines < 0 {
		return fmt.Errorf("MaxGoroutines cannot be negative, got %d", perf.MaxGoroutines)
	}
	if perf.ParallelFileWorkers < 0 {
		return fmt.Errorf("ParallelFileWorkers cannot be negative, got %d", perf.ParallelFileWorkers)
	}
	return nil
}

func (v *Validator) validateQueueConfig(q *Queue) error {
	if q.WorkerIdleTimeoutSec <= 0 {
		return fmt.Errorf("WorkerIdleTimeoutSec must be positive, got %d", q.WorkerIdleTimeoutSec)
	}
	if q.MaxPendingPerProject <= 0 {
		return fmt.Errorf("MaxPendingPerProject must be positive, got %d", q.MaxPendingPerProject)
	}
	return nil
}

func (v *Validator) validateWatchConfig(w *Watch) error {
	if w.DebounceMs <= 0 {
		return fmt.Errorf("DebounceMs must be positive, got %d", w.DebounceMs)
	}
	if w.MaxBatchEvents <= 0 {
		return fmt.Errorf("MaxBatchEvents must be positive, got %d", w.MaxBatchEvents)
	}
	return nil
}

// setSmartDefaults fills in zero-valued fields based on system capabilities.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.MaxGoroutines == 0 {
		numCPU := runtime.NumCPU()
		cfg.Performance.MaxGoroutines = max(1, numCPU-1)
	}

	if cfg.Performance.ParallelFileWorkers == 0 {
		numCPU := runtime.NumCPU()
		cfg.Performance.ParallelFileWorkers = max(1, numCPU-1)
	}

	if cfg.Performance.MaxMemoryMB == 0 {
		cfg.Performance.MaxMemoryMB = 1024
	}

	if !cfg.Index.SmartSizeControl {
		cfg.Index.SmartSizeControl = true
	}

	if cfg.Index.PriorityMode == "" {
		cfg.Index.PriorityMode = "recent"
	}

	if cfg.Queue.WorkerIdleTimeoutSec == 0 {
		cfg.Queue.WorkerIdleTimeoutSec = DefaultWorkerIdleTimeout
	}

	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultWatchDebounceMs
	}
	if cfg.Watch.MaxBatchEvents == 0 {
		cfg.Watch.MaxBatchEvents = DefaultWatchEventCap
	}
}

// ValidateConfig is a convenience wrapper for quick validation.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
