// Package log writes diagnostics to a rotating file when logs.write is enabled.
// Every helper is a no-op otherwise, so callers never guard their log lines.
package log

import (
	"errors"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/key"
	"github.com/yato-cli/yato/where"
	"gopkg.in/natefinch/lumberjack.v2"
)

var enabled bool

// Setup configures output, format and level from the current configuration.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	logrus.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(dir, constant.Yato+".log"),
		MaxSize:    viper.GetInt(key.LogsMaxSize),
		MaxBackups: viper.GetInt(key.LogsMaxBackups),
		MaxAge:     viper.GetInt(key.LogsMaxAge),
		Compress:   true,
	})

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return nil
}

// Fields is an alias so callers do not import logrus for structured lines.
type Fields = logrus.Fields

// WithFields logs a structured line at info level.
func WithFields(fields Fields, msg string) {
	if enabled {
		logrus.WithFields(fields).Info(msg)
	}
}

func Panic(args ...any) {
	if enabled {
		logrus.Panic(args...)
	}
}

func Fatal(args ...any) {
	if enabled {
		logrus.Fatal(args...)
	}
}

func Error(args ...any) {
	if enabled {
		logrus.Error(args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}

func Warn(args ...any) {
	if enabled {
		logrus.Warn(args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}

func Info(args ...any) {
	if enabled {
		logrus.Info(args...)
	}
}

func Infof(format string, args ...any) {
	if enabled {
		logrus.Infof(format, args...)
	}
}

func Debug(args ...any) {
	if enabled {
		logrus.Debug(args...)
	}
}

func Debugf(format string, args ...any) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}

func Tracef(format string, args ...any) {
	if enabled {
		logrus.Tracef(format, args...)
	}
}
