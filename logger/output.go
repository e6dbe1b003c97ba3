package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// outputWriter maps Config.Output onto a writer. Anything other than
// stdout or stderr is a file path rotated by lumberjack.
func outputWriter(cfg *Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}
}

const (
	ansiReset = "\033[0m"
	ansiBlue  = "\033[34m"
)

// levelTags holds the short tag and color of each zerolog level.
var levelTags = map[string][2]string{
	"trace": {"TRC", "\033[90m"},
	"debug": {"DBG", "\033[36m"},
	"info":  {"INF", "\033[32m"},
	"warn":  {"WRN", "\033[33m"},
	"error": {"ERR", "\033[31m"},
	"fatal": {"FTL", "\033[35m"},
}

// consoleWriter renders lines as "15:04:05 [WHI][INF] message key:value".
// The service tag is the first three letters of the service name.
func consoleWriter(out io.Writer, noColor bool, serviceName string) zerolog.ConsoleWriter {
	paint := func(color, s string) string {
		if noColor || color == "" {
			return s
		}
		return color + s + ansiReset
	}
	var svcTag string
	if len(serviceName) >= 3 && serviceName != "default" {
		svcTag = paint(ansiBlue, "["+strings.ToUpper(serviceName[:3])+"]")
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			lvl, _ := i.(string)
			tag, ok := levelTags[lvl]
			if !ok {
				tag[0] = strings.ToUpper(lvl)
			}
			return svcTag + paint(tag[1], "["+tag[0]+"]")
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprintf("%s:", i) },
	}
}
