package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog wrapper. Error events are also handed to the attached
// LogCollector, which children created by With share with their parent.
type Logger struct {
	zl   zerolog.Logger
	sink *collectorSink
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string // defaults to RFC3339Nano
}

type collectorSink struct {
	mu        sync.RWMutex
	collector *LogCollector
}

func (s *collectorSink) add(level, msg string, fields map[string]interface{}, caller string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collector != nil {
		s.collector.AddLog(level, msg, fields, caller)
	}
}

func (s *collectorSink) active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collector != nil
}

func (s *collectorSink) swap(c *LogCollector) {
	s.mu.Lock()
	old := s.collector
	s.collector = c
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: timeFormat}
	}
	return NewWithWriter(output, level), nil
}

// NewWithWriter builds a logger writing JSON (or whatever w renders) at the given level.
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()
	return &Logger{zl: zl, sink: &collectorSink{}}
}

// NewNop returns a logger that discards everything. Used by tests and as a nil-safe default.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), sink: &collectorSink{}}
}

// With returns a child logger carrying the given fields on every event.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		k, v := f.GetKeyValue()
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger(), sink: l.sink}
}

func (l *Logger) collect(level, msg string, fields []Field) {
	if !l.sink.active() {
		return
	}

	// skip frames: this function -> Error -> user code
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		parts := strings.Split(file, "MacroPulse/")
		caller = fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
	}

	fieldMap := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		key, value := field.GetKeyValue()
		fieldMap[key] = value
	}
	l.sink.add(level, msg, fieldMap, caller)
}

func (l *Logger) event(e *zerolog.Event, msg string, fields []Field) {
	for _, field := range fields {
		field.AddTo(e)
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.event(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.event(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) { l.event(l.zl.Warn(), msg, fields) }

func (l *Logger) Error(msg string, fields ...Field) {
	l.event(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

// AddCollector attaches a collector to this logger and every logger derived from it,
// closing any previous one.
func (l *Logger) AddCollector(config *CollectionConfig) {
	l.sink.swap(NewLogCollector(config))
}

// RemoveCollector flushes and detaches the collector.
func (l *Logger) RemoveCollector() {
	l.sink.swap(nil)
}

// Field types for structured logging.
type Field interface {
	AddTo(event *zerolog.Event)
	GetKeyValue() (string, interface{})
}

type StringField struct {
	Key   string
	Value string
}

func (f StringField) AddTo(event *zerolog.Event) {
	event.Str(f.Key, f.Value)
}

func (f StringField) GetKeyValue() (string, interface{}) {
	return f.Key, f.Value
}

type IntField struct {
	Key   string
	Value int
}

func (f IntField) AddTo(event *zerolog.Event) {
	event.Int(f.Key, f.Value)
}

func (f IntField) GetKeyValue() (string, interface{}) {
	return f.Key, f.Value
}

type FloatField struct {
	Key   string
	Value float64
}

func (f FloatField) AddTo(event *zerolog.Event) {
	event.Float64(f.Key, f.Value)
}

func (f FloatField) GetKeyValue() (string, interface{}) {
	return f.Key, f.Value
}

type ErrorField struct {
	Key   string
	Value error
}

func (f ErrorField) AddTo(event *zerolog.Event) {
	event.Err(f.Value)
}

func (f ErrorField) GetKeyValue() (string, interface{}) {
	if f.Value == nil {
		return f.Key, nil
	}
	return f.Key, f.Value.Error()
}

type AnyField struct {
	Key   string
	Value interface{}
}

func (f AnyField) AddTo(event *zerolog.Event) {
	event.Interface(f.Key, f.Value)
}

func (f AnyField) GetKeyValue() (string, interface{}) {
	return f.Key, f.Value
}

type BoolField struct {
	Key   string
	Value bool
}

func (f BoolField) AddTo(event *zerolog.Event) {
	event.Bool(f.Key, f.Value)
}

func (f BoolField) GetKeyValue() (string, interface{}) {
	return f.Key, f.Value
}

// --- Field constructors ---

func String(key, value string) Field {
	return StringField{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return IntField{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return FloatField{Key: key, Value: value}
}

func Error(err error) Field {
	return ErrorField{Key: "error", Value: err}
}

func Any(key string, value interface{}) Field {
	return AnyField{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return IntField{Key: key, Value: int(value / time.Millisecond)}
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}

func Bool(s string, v bool) Field {
	return BoolField{Key: s, Value: v}
}
