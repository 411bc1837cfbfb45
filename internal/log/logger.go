package log

import (
	"os"
	"path/filepath"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger replaces the global zap logger. Output goes to the console and,
// when path is set, to a JSON file. Errors are forwarded to Sentry when a DSN
// is provided.
func NewLogger(path string, debug bool, sentryDsn string) {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	pe.MessageKey = "message"
	pe.TimeKey = "time"
	fileEncoder := zapcore.NewJSONEncoder(pe)

	pe.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(pe)

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(colorable.NewColorableStdout()), level),
	}

	var fileErr error
	if path != "" {
		f, err := openLogFile(path)
		if err == nil {
			cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
		}
		fileErr = err
	}

	logger := zap.New(zapcore.NewTee(cores...))
	defer logger.Sync()

	if sentryDsn != "" {
		logger = modifyToSentryLogger(logger, sentryDsn)
	}

	zap.ReplaceGlobals(logger)

	if fileErr != nil {
		logger.With(zap.String("path", path), zap.Error(fileErr)).Warn("Logger: file output disabled")
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func modifyToSentryLogger(log *zap.Logger, DSN string) *zap.Logger {
	cfg := zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
		Tags: map[string]string{
			"component": "ledger",
		},
	}
	core, err := zapsentry.NewCore(cfg, zapsentry.NewSentryClientFromDSN(DSN))

	log = log.With(zapsentry.NewScope())

	// a failed init yields a noop core, safe to attach
	if err != nil {
		log.Warn("failed to init sentry core", zap.Error(err))
	}
	return zapsentry.AttachCoreToLogger(core, log)
}
