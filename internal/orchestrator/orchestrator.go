// Package orchestrator schedules the extraction pipeline's plugins across
// five strictly ordered phases (spec §4.4): DISCOVERY, INDEXING, ANALYSIS,
// ENRICHMENT, VALIDATION.
//
// The implementation is split across focused files, following the
// teacher's shard_manager.go modularization:
//
//   - plugin.go     : Plugin/PluginResult/Metadata contract types
//   - scheduler.go  : topological sort within a phase
//   - run.go        : Orchestrator struct, Run, progress, cancellation
//
// This file is intentionally left minimal; it serves as documentation.
package orchestrator
