package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Terminal: 终端信息提示（非日志）。
// - 输出到提供的 io.Writer（默认建议 stderr）。
// - TTY: 读取进度单行 \r 覆盖；非 TTY: 关键节点分行打印。
// - 并发安全；写失败后进入禁用态为 no-op。
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	// 运行期最小状态
	input     string
	outDir    string
	yearsDone int
	runStart  time.Time

	// 当前年度
	curYear  string
	curCount int

	// 输出控制
	lastLen   int
	lastFlush time.Time

	mu sync.Mutex
}

// 进程级终端（可选，全局设置后供 pipeline 旁路调用）。
var (
	termMu sync.RWMutex
	termG  *Terminal
)

// SetTerminal 设置全局终端指针（nil 可清除）。
func SetTerminal(t *Terminal) { termMu.Lock(); termG = t; termMu.Unlock() }

// GetTerminal 返回全局终端（可能为 nil）。
func GetTerminal() *Terminal { termMu.RLock(); defer termMu.RUnlock(); return termG }

// NewTerminal 构造终端提示器。
// enabled=false 时总是 no-op。
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, enabled: enabled}
	// CI 环境视为非 TTY
	if os.Getenv("CI") != "" {
		t.isTTY = false
	} else if f, ok := w.(*os.File); ok {
		t.isTTY = term.IsTerminal(int(f.Fd()))
	}
	return t
}

// RunStart: 记录运行上下文（输入与输出目录）。
func (t *Terminal) RunStart(input, outDir string) {
	if t == nil { return }
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled { return }
	t.input = shortenBase(input, 48)
	t.outDir = outDir
	t.yearsDone = 0
	t.runStart = time.Now()
	t.println(fmt.Sprintf("[run] 输入=%s | 输出=%s", t.input, safe(outDir)))
}

// ReadProgress: 读取中的行数（仅 TTY，≥100ms 节流）。
func (t *Terminal) ReadProgress(rows int) {
	if t == nil { return }
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled || !t.isTTY { return }
	now := time.Now()
	if now.Sub(t.lastFlush) < 100*time.Millisecond {
		return
	}
	t.lastFlush = now
	t.printInline(fmt.Sprintf("[read] %s | 行 %d | 用时 %s", t.input, rows, formatSince(t.runStart)))
}

// ReadFinish: 读取结束（记录数与年度数）。
func (t *Terminal) ReadFinish(rows, years int) {
	if t == nil { return }
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled { return }
	if t.isTTY && t.lastLen > 0 {
		t.printInline("")
	}
	t.println(fmt.Sprintf("[read] %s | 记录 %d | 年度 %d", t.input, rows, years))
}

// YearStart: 标记当前年度与记录数。
func (t *Terminal) YearStart(year string, count int) {
	if t == nil { return }
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled { return }
	t.curYear = safe(year)
	t.curCount = count
}

// YearFinish: 完成当前年度（YearsDone++）。
func (t *Terminal) YearFinish(ok bool, dur time.Duration) {
	if t == nil { return }
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled { return }
	status := "done"
	if ok {
		t.yearsDone++
	} else {
		status = "fail"
	}
	t.println(fmt.Sprintf("[%s] %s | 记录 %d | 用时 %s", status, t.curYear, t.curCount, formatDur(dur)))
}

// RunFinish: 结束总览。
func (t *Terminal) RunFinish(ok bool, dur time.Duration) {
	if t == nil { return }
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled { return }
	tag := "ok"
	if !ok {
		tag = "fail"
	}
	t.println(fmt.Sprintf("[%s] 全部完成 | 年度 %d | 总用时 %s", tag, t.yearsDone, formatDur(dur)))
}

// 内部输出工具
func (t *Terminal) println(s string) {
	if t == nil || !t.enabled { return }
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		// 写失败即禁用
		t.enabled = false
	}
	t.lastLen = 0
}

func (t *Terminal) printInline(s string) {
	if t == nil || !t.enabled { return }
	// 清尾：若新行比旧短，填充空格覆盖
	pad := 0
	if l := visLen(s); t.lastLen > l {
		pad = t.lastLen - l
	}
	var b strings.Builder
	b.WriteByte('\r')
	b.WriteString(s)
	if pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		t.enabled = false
		return
	}
	t.lastLen = visLen(s)
}

// shortenBase: 取基名并按可见宽度截断（尾部省略号）。
func shortenBase(s string, max int) string {
	if max <= 0 { return "" }
	s = strings.TrimSpace(s)
	if s == "-" { return "stdin" }
	base := s
	if i := strings.LastIndexAny(s, `/\`); i >= 0 && i < len(s)-1 {
		base = s[i+1:]
	}
	base = safe(base)
	if base == "" { return "" }
	if visLen(base) <= max { return base }
	// 预留 1 个字符给省略号
	cut := max - 1
	if cut < 1 { cut = 1 }
	rs := []rune(base)
	return string(rs[:cut]) + "…"
}

func visLen(s string) int { return len([]rune(s)) }

func safe(s string) string {
	// 避免换行等控制字符污染终端
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

func formatSince(t0 time.Time) string { return formatDur(time.Since(t0)) }

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms <= 0 { ms = 0 }
		return fmt.Sprintf("%dms", ms)
	}
	// 秒，保留 1 位小数
	s := float64(d.Milliseconds()) / 1000.0
	return fmt.Sprintf("%.1fs", s)
}
