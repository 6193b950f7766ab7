package jsonpretty

import (
	"bytes"
	"context"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"subjectsplit/pkg/contract"
)

// Options: 输出排版选项；零值即与源工具一致的排版。
type Options struct {
	// Indent: 缩进字符串，仅允许空格/制表符。默认两个空格。
	Indent string `json:"indent"`
	// TrailingNewline: 是否在文档末尾追加换行。默认 false。
	TrailingNewline bool `json:"trailing_newline"`
	// EscapeHTML: 是否将 <、>、& 转义为 \u003c 等。默认 false（原样输出）。
	EscapeHTML bool `json:"escape_html"`
}

type encoder struct {
	indent          string
	trailingNewline bool
	escapeHTML      bool
}

// New 创建 JSON 数组编码器。
func New(opts *Options) (contract.Encoder, error) {
	e := &encoder{indent: "  "}
	if opts == nil {
		return e, nil
	}
	if opts.Indent != "" {
		if strings.Trim(opts.Indent, " \t") != "" {
			return nil, contract.ErrInvariantViolation
		}
		e.indent = opts.Indent
	}
	e.trailingNewline = opts.TrailingNewline
	e.escapeHTML = opts.EscapeHTML
	return e, nil
}

// Encode 将 subjects 渲染为缩进 JSON 数组；对象键顺序即 contract.Subject 字段顺序。
// 空序列渲染为 "[]"。
func (e *encoder) Encode(ctx context.Context, year contract.Year, subjects []contract.Subject) (io.Reader, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if subjects == nil {
		subjects = []contract.Subject{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(e.escapeHTML)
	enc.SetIndent("", e.indent)
	if err := enc.Encode(subjects); err != nil {
		return nil, err
	}
	b := rewriteEscapes(buf.Bytes())
	// Encoder 总是追加换行
	if !e.trailingNewline {
		b = bytes.TrimSuffix(b, []byte("\n"))
	}
	return bytes.NewReader(b), nil
}

func (e *encoder) Ext() string { return ".json" }

// rewriteEscapes 把字符串转义统一为 serde_json 风格：
// \u0008、\u000c 写作 \b、\f；U+2028、U+2029 原样输出；\u00XX 的十六进制位小写。
// JSON 文本中的反斜杠只会成对出现在字符串内，按对扫描即可，不会误改 \\u2028 这样的字面文本。
func rewriteEscapes(b []byte) []byte {
	if bytes.IndexByte(b, '\\') < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != '\\' || i+1 >= len(b) {
			out = append(out, c)
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch hex := strings.ToLower(string(b[i+2 : i+6])); hex {
			case "0008":
				out = append(out, '\\', 'b')
			case "000c":
				out = append(out, '\\', 'f')
			case "2028":
				out = append(out, "\u2028"...)
			case "2029":
				out = append(out, "\u2029"...)
			default:
				out = append(out, '\\', 'u')
				if strings.HasPrefix(hex, "00") {
					out = append(out, hex...)
				} else {
					out = append(out, b[i+2:i+6]...)
				}
			}
			i += 5
			continue
		}
		out = append(out, c, b[i+1])
		i++
	}
	return out
}

var _ contract.Encoder = (*encoder)(nil)
