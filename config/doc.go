// Package config loads service configuration with viper.
//
// Values come from a YAML file (./cmd/<service>/config.yml, ./config.yml or
// the path in <SERVICE>_CONFIG), then a .env file loaded with godotenv, then
// the process environment. Environment variables map onto nested keys by
// splitting on underscores, so SERVER_PORT sets server.port and
// WORKER_QUEUE_SIZE sets worker.queue_size.
//
//	var cfg Config
//	loader, err := config.Load("whisper-srt", &cfg)
//	loader.Watch(func(ev fsnotify.Event, l *config.Loader) {
//	    logger.SetLevel(l.GetString("logging.level"))
//	})
package config
