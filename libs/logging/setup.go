package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level       log.Level
	FilePath    string
	MaxAgeDays  int
	MaxSizeMB   int
	MaxBackups  int
	ForceColors bool
}

// ParseLevel DEBUG, INFO, WARN, ERROR; всё остальное даёт INFO.
func ParseLevel(level string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Configure настраивает стандартный логгер logrus: консоль и, если задан путь,
// файл с ротацией через lumberjack. Возвращает файловый логгер для закрытия (или nil).
func Configure(opts Options) (*lumberjack.Logger, error) {
	log.SetLevel(opts.Level)
	log.SetFormatter(&log.TextFormatter{ForceColors: opts.ForceColors, FullTimestamp: false})
	log.SetOutput(os.Stdout)

	if opts.FilePath == "" {
		return nil, nil
	}

	logDir := filepath.Dir(opts.FilePath)
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("не получилось создать директорию для логов: %w", err)
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 366
	}

	fileLogger := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
	hook := lfshook.NewHook(lfshook.WriterMap{
		log.PanicLevel: fileLogger,
		log.FatalLevel: fileLogger,
		log.ErrorLevel: fileLogger,
		log.WarnLevel:  fileLogger,
		log.InfoLevel:  fileLogger,
		log.DebugLevel: fileLogger,
		log.TraceLevel: fileLogger,
	}, fileFmt)

	log.AddHook(hook)

	return fileLogger, nil
}
