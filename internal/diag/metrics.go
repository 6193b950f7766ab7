package diag

import "sync"

// 进程内计数器：
// - op_total{comp,stage,result}
// - error_total{comp,code}
// - op_duration_ms{comp,stage}（累加）
// 键以 "/" 连接标签值。

type counters struct {
	mu    sync.Mutex
	ops   map[string]int64
	errs  map[string]int64
	durMS map[string]int64
}

var metrics = newCounters()

func newCounters() *counters {
	return &counters{ops: map[string]int64{}, errs: map[string]int64{}, durMS: map[string]int64{}}
}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	metrics.mu.Lock()
	metrics.ops[comp+"/"+stage+"/"+result]++
	metrics.mu.Unlock()
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	metrics.mu.Lock()
	metrics.errs[comp+"/"+code]++
	metrics.mu.Unlock()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	metrics.mu.Lock()
	metrics.durMS[comp+"/"+stage] += durMS
	metrics.mu.Unlock()
}

// MetricsSnapshot 计数器快照（副本）。
type MetricsSnapshot struct {
	OpTotal      map[string]int64
	ErrorTotal   map[string]int64
	OpDurationMS map[string]int64
}

// Snapshot 返回当前计数副本。
func Snapshot() MetricsSnapshot {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	return MetricsSnapshot{
		OpTotal:      clone(metrics.ops),
		ErrorTotal:   clone(metrics.errs),
		OpDurationMS: clone(metrics.durMS),
	}
}

// ResetMetrics 清零（测试用）。
func ResetMetrics() {
	metrics.mu.Lock()
	metrics.ops = map[string]int64{}
	metrics.errs = map[string]int64{}
	metrics.durMS = map[string]int64{}
	metrics.mu.Unlock()
}

func clone(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
