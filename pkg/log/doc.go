/*
Package log provides structured logging for graphd using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

graphd's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("planner")                 │          │
	│  │  - WithQueryID("q-abc123")                  │          │
	│  │  - WithTxID(42)                             │          │
	│  │  - WithEpoch(7)                             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "executor",                 │          │
	│  │    "time": "2026-07-31T10:30:00Z",         │          │
	│  │    "message": "query committed"             │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2026-07-31T10:30:00Z INF query committed component=executor │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all graphd packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithQueryID: Add Cypher query correlation id
  - WithTxID: Add transaction id context
  - WithEpoch: Add commit epoch context

# Log Levels

Debug Level:
  - Purpose: Detailed debugging information
  - Usage: Development and troubleshooting
  - Performance: Verbose, may impact production
  - Example: "scanning label bitmap: label_id=3 cardinality=421"

Info Level:
  - Purpose: General informational messages
  - Usage: Default production level
  - Performance: Moderate volume
  - Example: "index created: label=Person key=email"

Warn Level:
  - Purpose: Potential issues or unexpected conditions
  - Usage: Situations that may require attention
  - Performance: Low volume
  - Example: "plan cache eviction: entries exceeded max_entries"

Error Level:
  - Purpose: Operation failures that need investigation
  - Usage: Failed operations, exceptions
  - Performance: Low volume
  - Example: "write transaction aborted: constraint violation"

Fatal Level:
  - Purpose: Critical errors causing process termination
  - Usage: Unrecoverable errors only
  - Behavior: Logs message and exits process (os.Exit(1))
  - Example: "Failed to open record stores: %v"

# Usage

Initializing the Logger:

	import "github.com/cuemby/graphd/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development, e.g. cmd/graphd REPL)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("engine opened")
	log.Debug("replaying WAL tail")
	log.Warn("orphaned property blobs accumulating")
	log.Error("failed to remap adjacency file")
	log.Fatal("cannot start without record stores") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("query_id", queryID).
		Int("rows", len(result.Rows)).
		Msg("query executed")

	log.Logger.Error().
		Err(err).
		Uint64("tx_id", tx.ID).
		Msg("write transaction aborted")

Component Loggers:

	// Create component-specific logger
	plannerLog := log.WithComponent("planner")
	plannerLog.Info().Msg("plan cache miss")
	plannerLog.Debug().Str("query_id", queryID).Msg("building operator pipeline")

	// Multiple context fields
	txLog := log.WithComponent("txn").
		With().Uint64("tx_id", tx.ID).
		Uint64("epoch", epoch).Logger()
	txLog.Info().Msg("committing write transaction")
	txLog.Error().Err(err).Msg("commit failed")

# Integration Points

This package integrates with:

  - pkg/engine: logs Open/Close and each executed query
  - cmd/graphd and cmd/graphd-reindex: call Init at startup

pkg/txn, pkg/planner, pkg/executor and pkg/wal do not log.

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"engine","time":"2026-07-31T10:30:00Z","message":"engine opened"}
	{"level":"info","component":"planner","query_id":"q-123","time":"2026-07-31T10:30:01Z","message":"plan cache hit"}
	{"level":"error","component":"txn","tx_id":42,"time":"2026-07-31T10:30:02Z","message":"commit failed","error":"constraint violation"}

Console Format (Development):

	2026-07-31T10:30:00Z INF engine opened component=engine
	2026-07-31T10:30:01Z INF plan cache hit component=planner query_id=q-123
	2026-07-31T10:30:02Z ERR commit failed component=txn tx_id=42 error="constraint violation"

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces
  - Include context (query id, tx id, epoch)

Don't:
  - Log property values verbatim (may contain user data)
  - Use Debug level in production
  - Log per-row in hot executor loops (log per-query instead)
  - Concatenate strings (use .Str, .Int)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
*/
package log
