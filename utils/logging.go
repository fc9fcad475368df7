package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Global logger variables. Info goes to stdout, errors to stderr.
var (
	InfoLogger  = newLogger(os.Stdout, false)
	ErrorLogger = newLogger(os.Stderr, false)
)

func newLogger(out io.Writer, jsonFormat bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// InitLogging initializes structured logging with separate stdout/stderr streams.
// JSON lines are used when jsonFormat is set (production); otherwise text.
func InitLogging(jsonFormat bool, level string) {
	InfoLogger = newLogger(os.Stdout, jsonFormat)
	ErrorLogger = newLogger(os.Stderr, jsonFormat)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	InfoLogger.SetLevel(lvl)
	ErrorLogger.SetLevel(lvl)
	if err != nil {
		LogWarn("unknown LOG_LEVEL, using info", "level", level)
	}
}

// SetOutput redirects both loggers, mainly for tests.
func SetOutput(w io.Writer) {
	InfoLogger.SetOutput(w)
	ErrorLogger.SetOutput(w)
}

// fields turns alternating key/value metadata into logrus fields.
// A trailing key without a value is kept under "extra".
func fields(metadata []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(metadata); i += 2 {
		key := fmt.Sprint(metadata[i])
		if i+1 >= len(metadata) {
			f["extra"] = key
			break
		}
		f[key] = metadata[i+1]
	}
	return f
}

// LogError logs errors with context to stderr
func LogError(context string, err error, metadata ...interface{}) {
	if err != nil {
		ErrorLogger.WithFields(fields(metadata)).WithError(err).Error(context)
	}
}

// LogInfo logs informational messages to stdout
func LogInfo(message string, metadata ...interface{}) {
	InfoLogger.WithFields(fields(metadata)).Info(message)
}

// LogWarn logs warnings to stderr
func LogWarn(message string, metadata ...interface{}) {
	ErrorLogger.WithFields(fields(metadata)).Warn(message)
}

// LogRequestError logs errors with request context to stderr
func LogRequestError(c *fiber.Ctx, context string, err error, metadata ...interface{}) {
	if err != nil {
		requestID, _ := c.Locals("request_id").(string)

		args := []interface{}{
			"request_id", requestID,
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
		}
		args = append(args, metadata...)
		LogError(context, err, args...)
	}
}
