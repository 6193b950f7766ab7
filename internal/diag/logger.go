package diag

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) zl() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Options 日志配置。Dir 为空时日志器为 no-op（不写 stderr/stdout）。
type Options struct {
	Level  string
	Dir    string
	Format string // json|pretty
	// MaxSizeMB 单个日志文件上限（MB），超过即轮转；默认 10。
	MaxSizeMB int
	// MaxBackups 保留的轮转文件个数；0 表示全部保留。
	MaxBackups int
}

// LogFileName 为当前日志文件名；轮转后的文件名形如 subjectsplit-current-<时间戳>.txt。
const LogFileName = "subjectsplit-current.txt"

// newSink 构造按大小轮转的日志文件（目录不存在时由 lumberjack 创建）。
func newSink(dir string, maxSizeMB, maxBackups int) *lumberjack.Logger {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
}

// Logger 为结构化事件日志器（zerolog 实现）：每个事件一行，写入按大小轮转的文件。
// nil *Logger 的所有方法均为 no-op。
type Logger struct {
	zl   zerolog.Logger
	sink io.Closer
	mu   sync.Mutex
}

// NewLogger 按配置初始化；dir 为空返回 no-op 日志器。
func NewLogger(corrID string, opt Options) *Logger {
	if strings.TrimSpace(opt.Dir) == "" {
		return &Logger{zl: zerolog.Nop()}
	}
	sink := newSink(opt.Dir, opt.MaxSizeMB, opt.MaxBackups)
	l := newLogger(sink, corrID, opt.Level, opt.Format)
	l.sink = sink
	return l
}

// NewLoggerTo 将事件写到任意 io.Writer（测试与嵌入使用）。
func NewLoggerTo(w io.Writer, corrID, level, format string) *Logger {
	return newLogger(w, corrID, level, format)
}

func newLogger(w io.Writer, corrID, level, format string) *Logger {
	if strings.EqualFold(strings.TrimSpace(format), "pretty") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	lvl := parseLevel(strings.TrimSpace(level))
	zl := zerolog.New(w).Level(lvl.zl()).With().Str("corr_id", corrID).Logger()
	return &Logger{zl: zl}
}

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Event 为标准事件结构。
type Event struct {
	Comp  string
	Stage string // start|finish|error
	Code  string
	DurMS int64
	Count int64
	Year  string
	Msg   string
	KV    map[string]string
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil {
		return
	}
	var e *zerolog.Event
	switch lv {
	case Debug:
		e = l.zl.Debug()
	case Warn:
		e = l.zl.Warn()
	case Error:
		e = l.zl.Error()
	default:
		e = l.zl.Info()
	}
	if e == nil {
		return
	}
	e = e.Str("ts", NowUTC()).Str("comp", ev.Comp).Str("stage", ev.Stage)
	if ev.Code != "" {
		e = e.Str("code", ev.Code)
	}
	if ev.DurMS != 0 {
		e = e.Int64("dur_ms", ev.DurMS)
	}
	if ev.Count != 0 {
		e = e.Int64("count", ev.Count)
	}
	if ev.Year != "" {
		e = e.Str("year", ev.Year)
	}
	e = e.Str("msg", ev.Msg)
	if len(ev.KV) > 0 {
		// 键排序保证输出稳定
		keys := make([]string, 0, len(ev.KV))
		for k := range ev.KV {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := zerolog.Dict()
		for _, k := range keys {
			d = d.Str(k, ev.KV[k])
		}
		e = e.Dict("kv", d)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Send()
}

// Close 关闭底层文件句柄（若有）。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Msg: msg})
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带 year 的 start。
func (l *Logger) StartWith(comp, msg, year string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Year: year, Msg: msg})
	return &Timer{l: l, comp: comp, year: year, t0: time.Now()}
}

// StartWithKV 记录带 year 与键值的 start。
func (l *Logger) StartWithKV(comp, msg, year string, kv map[string]string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Year: year, Msg: msg, KV: kv})
	return &Timer{l: l, comp: comp, year: year, t0: time.Now()}
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: since(durSince), Msg: msg})
}

// ErrorWith 支持 year。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, year string) {
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: since(durSince), Msg: msg, Year: year})
}

// ErrorWithKV 支持附带键值对（例如出错的路径、行号）。
func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, year string, kv map[string]string) {
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: since(durSince), Msg: msg, Year: year, KV: kv})
}

// InfoFinish 在已有起点的情况下记录 finish。
func (l *Logger) InfoFinish(comp, msg string, start time.Time, count int64) {
	l.log(Info, Event{Comp: comp, Stage: "finish", DurMS: time.Since(start).Milliseconds(), Count: count, Msg: msg})
}

// DebugStart 输出调试级别的“start”类事件（仅在 level=debug 时生效）。
func (l *Logger) DebugStart(comp, msg, year string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "start", Year: year, Msg: msg, KV: kv})
}

func since(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return time.Since(*t).Milliseconds()
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l    *Logger
	comp string
	year string
	t0   time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	dur := time.Since(t.t0).Milliseconds()
	ObserveDuration(t.comp, msg, dur)
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: dur, Count: count, Year: t.year, Msg: msg})
}

// Since 返回计时起点，供 ErrorWith 计算耗时。
func (t *Timer) Since() *time.Time {
	if t == nil {
		return nil
	}
	return &t.t0
}
