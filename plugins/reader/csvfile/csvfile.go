package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"subjectsplit/pkg/contract"
)

// Options 为 CSV Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// Schema: 表头映射名。"auto"（默认）依次尝试 ja、en；也可固定为 "ja" 或 "en"。
	Schema string `json:"schema"`
	// Comma: 分隔符（单个字符）。默认 ","。
	Comma string `json:"comma"`
	// LazyQuotes: 容忍非规范引号。默认 true（源数据导出工具对引号不严格）。
	LazyQuotes *bool `json:"lazy_quotes,omitempty"`
}

// CSVFile 实现基于文件（或 STDIN "-"）的 Reader。
type CSVFile struct {
	bufSize    int
	schemas    []contract.Schema
	comma      rune
	lazyQuotes bool
}

// New 创建 CSV Reader；未知映射名或非法分隔符返回错误。
func New(opts *Options) (*CSVFile, error) {
	const defaultBuf = 64 * 1024
	r := &CSVFile{bufSize: defaultBuf, schemas: contract.Schemas, comma: ',', lazyQuotes: true}
	if opts == nil {
		return r, nil
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	switch name := strings.TrimSpace(opts.Schema); name {
	case "", "auto":
	default:
		s, ok := contract.SchemaByName(name)
		if !ok {
			return nil, fmt.Errorf("csvfile: unknown schema %q", name)
		}
		r.schemas = []contract.Schema{s}
	}
	if opts.Comma != "" {
		c, size := utf8.DecodeRuneInString(opts.Comma)
		if size != len(opts.Comma) || c == utf8.RuneError || c == '"' || c == '\r' || c == '\n' {
			return nil, fmt.Errorf("csvfile: invalid comma %q", opts.Comma)
		}
		r.comma = c
	}
	if opts.LazyQuotes != nil {
		r.lazyQuotes = *opts.LazyQuotes
	}
	return r, nil
}

var _ contract.Reader = (*CSVFile)(nil)

// Iterate 读取表头、解析映射，然后按文件顺序对每条数据行调用 yield。
// 任何解析问题都以 *contract.ParseError 返回；yield 的错误原样上抛。
func (r *CSVFile) Iterate(ctx context.Context, path string, yield func(row contract.Row) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rc, err := r.open(path)
	if err != nil {
		return &contract.ParseError{Path: path, Err: err}
	}
	defer rc.Close()

	cr := csv.NewReader(newQuotedCR(rc, r.comma))
	cr.Comma = r.comma
	cr.LazyQuotes = r.lazyQuotes
	// FieldsPerRecord=0：以表头列数为准，数据行列数不一致即报错。
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	restoreCR(header)
	if errors.Is(err, io.EOF) {
		return &contract.ParseError{Path: path, Err: fmt.Errorf("%w: empty input", contract.ErrHeaderMissing)}
	}
	if err != nil {
		return parseError(path, 0, header, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	hline, _ := cr.FieldPos(0)
	_, lay, err := contract.Detect(header, r.schemas...)
	if err != nil {
		return &contract.ParseError{Path: path, Line: hline, Record: header, Err: err}
	}
	width := lay.Width()

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rec, err := cr.Read()
		restoreCR(rec)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return parseError(path, n, rec, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < width {
			// 表头齐全时不应出现；保底防越界
			return &contract.ParseError{Path: path, Line: line, Row: n, Record: rec, Err: contract.ErrInvariantViolation}
		}
		for _, f := range rec {
			if !utf8.ValidString(f) {
				return &contract.ParseError{Path: path, Line: line, Row: n, Record: rec, Err: contract.ErrInvalidUTF8}
			}
		}
		if err := yield(lay.Row(line, rec)); err != nil {
			return err
		}
	}
}

func (r *CSVFile) open(path string) (io.ReadCloser, error) {
	if path == "-" {
		// 统一缓冲策略；STDIN 不由 Reader 关闭
		return newBufferedCloser(io.NopCloser(os.Stdin), r.bufSize), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return newBufferedCloser(f, r.bufSize), nil
}

// parseError 将 encoding/csv 的错误转换为 ParseError（保留物理行号）。
func parseError(path string, row int, rec []string, err error) *contract.ParseError {
	pe := &contract.ParseError{Path: path, Row: row, Record: rec, Err: err}
	var cerr *csv.ParseError
	if errors.As(err, &cerr) {
		pe.Line = cerr.StartLine
		pe.Err = cerr.Err
	}
	return pe
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func newBufferedCloser(c io.ReadCloser, bufSize int) *bufferedCloser {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }
