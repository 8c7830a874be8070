// Package logger provides structured logging for the rerun engine on top
// of zerolog.
//
// The engine emits one structured event per failed attempt and one per
// contained handler failure; everything else is debug-level. Libraries
// embedding the engine can hand it their own *Logger, fall back to the
// process-global one, or silence it entirely through configuration.
//
//	log := logger.NewFromEnv("rerun")
//	log.Error("attempt failed", logger.Fields(
//	    logger.FieldCallable, desc,
//	    logger.FieldAttempt, 2,
//	))
package logger
