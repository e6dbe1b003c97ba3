// Package logger provides structured logging on top of zerolog.
//
// Output is either JSON or a compact console format. When the configured
// output is a file path the file is rotated with lumberjack.
//
//	logging:
//	  level: info
//	  format: json
//	  output: /var/log/whisper-srt/app.log
//	  max_size: 100
//
// Component loggers are derived with WithComponent and request scoped
// loggers with WithContext:
//
//	log := logger.GetGlobalLogger().WithComponent("worker").WithContext(ctx)
//	log.Info("task completed", logger.Fields("task_id", id))
package logger
