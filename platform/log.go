package platform

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the process wide logger. It writes to stderr until InitLogger adds the file hook.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&LogFormatter{})
	logger.SetOutput(os.Stderr)
	return logger
}

// dailyFileHook writes every entry to <logPath>/<date>/<fileName>.log and switches
// file when the date changes.
type dailyFileHook struct {
	mu       sync.Mutex
	writer   *os.File
	logPath  string
	fileName string
	fileDate string
}

func (h *dailyFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *dailyFileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	today := entry.Time.Format("2006-01-02")
	if h.writer == nil || h.fileDate != today {
		if err := h.rotate(today); err != nil {
			return err
		}
	}
	_, err = h.writer.Write(line)
	return err
}

func (h *dailyFileHook) rotate(date string) error {
	dir := filepath.Join(h.logPath, date)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	writer, err := os.OpenFile(filepath.Join(dir, h.fileName+".log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		return err
	}
	if h.writer != nil {
		_ = h.writer.Close()
	}
	h.writer = writer
	h.fileDate = date
	return nil
}

type LogFormatter struct{}

func (m *LogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(b, "[%s] [%s] %s", timestamp, entry.Level, entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// InitLogger sets the level and attaches the daily file hook under logPath.
func InitLogger(logPath, fileName, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	hook := &dailyFileHook{logPath: logPath, fileName: fileName}
	if err := hook.rotate(time.Now().Format("2006-01-02")); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	Logger.AddHook(hook)
	return nil
}
