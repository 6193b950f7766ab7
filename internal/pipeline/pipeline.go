package pipeline

import (
	"context"
	"errors"
	"strconv"
	"time"

	"subjectsplit/internal/diag"
	"subjectsplit/internal/partition"
	"subjectsplit/pkg/contract"
)

// - 单协程：读取 → 分桶 → 逐年编码并写出，阻塞 I/O。
// - 先累积后冲刷：输入读尽之前不写任何文件；表头/行错误时零输出。
// - 首错即止：任一年度编码或写出失败立即返回，已写文件保留，不回滚。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader  contract.Reader
	Encoder contract.Encoder
	Writer  contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Input string
	// OutputDir 仅用于终端提示；实际落盘位置由 Writer 决定。
	OutputDir string
	// SortYears: 按年度字节序写出；否则按首次出现顺序。
	SortYears bool
}

// Result 运行汇总（供日志与调用方断言）。
type Result struct {
	Rows      int
	Years     []contract.Year
	Artifacts []contract.ArtifactID
}

// Run 执行完整流水线：Reader → Buckets → Encoder → Writer。
// 返回的错误为 *contract.ParseError / *contract.SerializeError / *contract.WriteError 之一，
// 或上下文取消错误。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) error {
	_, err := RunWithResult(ctx, comp, set, logger)
	return err
}

// RunWithResult 同 Run，额外返回汇总。出错时汇总包含已成功写出的部分。
func RunWithResult(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Result, error) {
	var res Result
	if err := sanity(comp, set); err != nil {
		return res, err
	}
	runStart := time.Now()
	term := diag.GetTerminal()
	term.RunStart(set.Input, set.OutputDir)
	ok := false
	defer func() {
		term.RunFinish(ok, time.Since(runStart))
	}()

	buckets, err := collect(ctx, comp.Reader, set.Input, logger)
	res.Rows = buckets.Total()
	if err != nil {
		return res, err
	}
	years := buckets.Years(set.SortYears)
	res.Years = years
	term.ReadFinish(buckets.Total(), len(years))

	for _, year := range years {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		subjects := buckets.Subjects(year)
		id, err := emit(ctx, comp, year, subjects, logger)
		if err != nil {
			return res, err
		}
		res.Artifacts = append(res.Artifacts, id)
	}
	ok = true
	logger.InfoFinish("pipeline", "run", runStart, int64(len(res.Artifacts)))
	logger.DebugStart("pipeline", "metrics", "", metricsKV())
	return res, nil
}

// collect 读尽输入并分桶。
func collect(ctx context.Context, r contract.Reader, input string, logger *diag.Logger) (*partition.Buckets, error) {
	buckets := partition.New()
	rtimer := logger.StartWithKV("reader", "iterate", "", map[string]string{"path": input})
	term := diag.GetTerminal()
	err := r.Iterate(ctx, input, func(row contract.Row) error {
		buckets.AddRow(row)
		term.ReadProgress(buckets.Total())
		return nil
	})
	if err != nil {
		code := diag.Classify(err)
		kv := map[string]string{"path": input}
		var pe *contract.ParseError
		if errors.As(err, &pe) && pe.Line > 0 {
			kv["line"] = strconv.Itoa(pe.Line)
		}
		logger.ErrorWithKV("reader", string(code), err.Error(), rtimer.Since(), "", kv)
		diag.IncOp("reader", "iterate", "error")
		if code != diag.CodeUnknown {
			diag.IncError("reader", string(code))
		}
		return buckets, err
	}
	rtimer.Finish("iterate", int64(buckets.Total()))
	diag.IncOp("reader", "iterate", "success")
	return buckets, nil
}

// emit 编码并写出单个年度。
func emit(ctx context.Context, comp Components, year contract.Year, subjects []contract.Subject, logger *diag.Logger) (contract.ArtifactID, error) {
	term := diag.GetTerminal()
	term.YearStart(string(year), len(subjects))
	start := time.Now()
	ok := false
	defer func() {
		term.YearFinish(ok, time.Since(start))
	}()

	etimer := logger.StartWith("encoder", "encode", string(year))
	r, err := comp.Encoder.Encode(ctx, year, subjects)
	if err != nil {
		serr := &contract.SerializeError{Year: year, Err: err}
		fail(logger, "encoder", "encode", serr, etimer, year)
		return "", serr
	}
	etimer.Finish("encode", int64(len(subjects)))
	diag.IncOp("encoder", "encode", "success")

	id := contract.ArtifactFor(year, comp.Encoder.Ext())
	wtimer := logger.StartWithKV("writer", "write", string(year), map[string]string{"artifact": string(id)})
	if err := comp.Writer.Write(ctx, id, r); err != nil {
		werr := &contract.WriteError{Year: year, ID: id, Err: err}
		fail(logger, "writer", "write", werr, wtimer, year)
		return id, werr
	}
	wtimer.Finish("write", 1)
	diag.IncOp("writer", "write", "success")
	ok = true
	return id, nil
}

func fail(logger *diag.Logger, comp, stage string, err error, t *diag.Timer, year contract.Year) {
	code := diag.Classify(err)
	logger.ErrorWith(comp, string(code), err.Error(), t.Since(), string(year))
	diag.IncOp(comp, stage, "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
}

func metricsKV() map[string]string {
	s := diag.Snapshot()
	kv := make(map[string]string, len(s.OpTotal)+len(s.ErrorTotal))
	for k, v := range s.OpTotal {
		kv["op_total/"+k] = strconv.FormatInt(v, 10)
	}
	for k, v := range s.ErrorTotal {
		kv["error_total/"+k] = strconv.FormatInt(v, 10)
	}
	return kv
}

func sanity(c Components, s Settings) error {
	if c.Reader == nil || c.Encoder == nil || c.Writer == nil {
		return errors.New("pipeline: missing components")
	}
	return nil
}
