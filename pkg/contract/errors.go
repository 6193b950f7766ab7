package contract

import (
	"errors"
	"fmt"
)

// 哨兵错误。
var (
	// ErrUsage: 命令行参数个数不符（在任何 I/O 之前报告）。
	ErrUsage = errors.New("usage")
	// ErrHeaderMissing: 表头缺少必需列。
	ErrHeaderMissing = errors.New("header missing required column")
	// ErrInvalidUTF8: 字段不是合法 UTF-8 文本。
	ErrInvalidUTF8 = errors.New("invalid utf-8")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（仅 strict 路径模式）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrConfigInvalid: 配置文件/环境变量/命令行组合非法。
	ErrConfigInvalid = errors.New("config invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)

// ParseError: 输入不可读或某行无法按列名映射。
// Row 为数据行序号（自 1 起；0 表示表头或打开文件阶段）；Line 为物理行号。
type ParseError struct {
	Path   string
	Line   int
	Row    int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Row == 0 && e.Line == 0:
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	case e.Row == 0:
		return fmt.Sprintf("parse %s: header (line %d): %v", e.Path, e.Line, e.Err)
	default:
		return fmt.Sprintf("parse %s: record %d (line %d): %v", e.Path, e.Row, e.Line, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerializeError: 某年份的记录无法渲染为输出表示。
type SerializeError struct {
	Year Year
	Err  error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("serialize year %q: %v", string(e.Year), e.Err)
}

func (e *SerializeError) Unwrap() error { return e.Err }

// WriteError: 目标文件无法创建或写入。
type WriteError struct {
	Year Year
	ID   ArtifactID
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", string(e.ID), e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
