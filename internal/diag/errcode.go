package diag

import (
	"context"
	"errors"
	"os"
	"time"

	"subjectsplit/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeUsage     Code = "usage"
	CodeParse     Code = "parse"
	CodeSerialize Code = "serialize"
	CodeWrite     Code = "write"
	CodeConfig    Code = "config"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrUsage) {
		return CodeUsage
	}
	if errors.Is(err, contract.ErrConfigInvalid) {
		return CodeConfig
	}
	var pe *contract.ParseError
	if errors.As(err, &pe) {
		return CodeParse
	}
	var se *contract.SerializeError
	if errors.As(err, &se) {
		return CodeSerialize
	}
	var we *contract.WriteError
	if errors.As(err, &we) {
		return CodeWrite
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
