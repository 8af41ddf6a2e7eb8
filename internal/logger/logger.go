// Package logger sets up the internal logrus logger and the access log
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	internalLogFile = "mathhub.log"
	accessLogFile   = "access.log"
	smartLogFile    = "errors.log"
)

// Output selects where a log goes; with no Dir and no StdErr it goes to
// stderr.
type Output struct {
	Dir    string
	StdErr bool
}

// Conf configures the loggers
type Conf struct {
	Access   Output
	Internal Output
	Level    string
	// SmartDir receives a copy of every error, if set
	SmartDir string
}

func openLog(out Output, name string) (io.Writer, error) {
	var writers []io.Writer
	if out.Dir != "" {
		f, err := os.OpenFile(filepath.Join(out.Dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open log file '%s'", name)
		}
		writers = append(writers, f)
	}
	if out.StdErr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

// Init configures the standard logrus logger
func Init(conf Conf) error {
	w, err := openLog(conf.Internal, internalLogFile)
	if err != nil {
		return err
	}
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level := log.InfoLevel
	if conf.Level != "" {
		if level, err = log.ParseLevel(conf.Level); err != nil {
			return errors.Wrap(err, "invalid log level")
		}
	}
	log.SetLevel(level)
	if conf.SmartDir != "" {
		sw, err := openLog(Output{Dir: conf.SmartDir}, smartLogFile)
		if err != nil {
			return err
		}
		log.AddHook(&smartHook{w: sw, formatter: &log.JSONFormatter{}})
	}
	return nil
}

// AccessLogConfig returns the request logger config writing to conf.Access
func AccessLogConfig(conf Conf) (*fiberlogger.Config, error) {
	w, err := openLog(conf.Access, accessLogFile)
	if err != nil {
		return nil, err
	}
	return &fiberlogger.Config{
		Format:     "${time} ${ip} ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Output:     w,
	}, nil
}

// smartHook copies errors into a separate log
type smartHook struct {
	mu        sync.Mutex
	w         io.Writer
	formatter log.Formatter
}

// Levels implements the log.Hook interface
func (*smartHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

// Fire implements the log.Hook interface
func (h *smartHook) Fire(e *log.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(b)
	return err
}
