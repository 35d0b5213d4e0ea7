// Package logging provides structured logging for coursegen.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. Workflow runs interleave several asynchronous
// processes (the session poll, per-lesson presentation and video polls, and
// one-off mutations), so every entry can carry the session, step and lesson
// it belongs to, which makes the log filterable after the fact.
//
// # Thread Safety
//
// [Logger] is safe for concurrent use. Child loggers created via With*
// methods share the underlying writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	sessionLogger := logger.WithSession("3f0c...").WithStep("refinement")
//	sessionLogger.Info("advance requested", "target", "refine")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"advance requested","session_id":"3f0c...","step":"refinement","target":"refine"}
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] to capture it:
//
//	var buf bytes.Buffer
//	logger := logging.NewWriterLogger(&buf, logging.LevelDebug)
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: info
//	  dir: ~/.config/coursegen/logs
package logging
