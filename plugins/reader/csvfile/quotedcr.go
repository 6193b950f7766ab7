package csvfile

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// encoding/csv 会把引号字段内的 "\r\n" 折叠为 "\n"。quotedCR 在交给 csv.Reader 之前
// 把引号区域内的 '\r' 改写为 crEsc+'r'，读出记录后由 restoreCR 还原。
// crEsc 取 0xFF：合法 UTF-8 中不会出现；输入中原有的 0xFF 改写为 crEsc+crEsc，
// 还原后保持原字节，随后仍由 UTF-8 校验拒绝。
const crEsc = 0xFF

// 扫描状态（只区分引号内外，与 csv.Reader 的字段切分保持一致）。
const (
	stField  = iota // 字段起始
	stBare          // 非引号字段内
	stQuoted        // 引号字段内
	stQuote         // 引号字段内遇到 '"'：可能是转义或字段结束
)

type quotedCR struct {
	src   *bufio.Reader
	comma []byte
	state int
	out   []byte
}

func newQuotedCR(r io.Reader, comma rune) *quotedCR {
	return &quotedCR{
		src:   bufio.NewReader(r),
		comma: []byte(string(comma)),
		state: stField,
	}
}

func (q *quotedCR) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(q.out) > 0 {
			c := copy(p[n:], q.out)
			q.out = q.out[c:]
			n += c
			continue
		}
		// 已有数据时不再阻塞等待（STDIN 交互输入）
		if n > 0 && q.src.Buffered() == 0 {
			break
		}
		b, err := q.src.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		q.step(b)
	}
	return n, nil
}

// step 处理一个字节并把改写结果放入 q.out。
func (q *quotedCR) step(b byte) {
	if b == crEsc {
		q.out = append(q.out, crEsc, crEsc)
		return
	}
	switch q.state {
	case stField, stBare:
		switch {
		case b == '"' && q.state == stField:
			q.state = stQuoted
		case b == '\n':
			q.state = stField
		case q.comma[0] == b:
			if q.takeComma(b) {
				q.state = stField
				return
			}
			q.state = stBare
		default:
			q.state = stBare
		}
	case stQuoted:
		switch b {
		case '"':
			q.state = stQuote
		case '\r':
			q.out = append(q.out, crEsc, 'r')
			return
		}
	case stQuote:
		switch {
		case b == '"':
			q.state = stQuoted
		case b == '\n':
			q.state = stField
		case b == '\r':
			// 记录结束前的 CR，保持状态
		case q.comma[0] == b && q.takeComma(b):
			q.state = stField
			return
		default:
			// LazyQuotes：孤立引号按字面量处理，仍在引号字段内
			q.state = stQuoted
		}
	}
	q.out = append(q.out, b)
}

// takeComma 在 b 为分隔符首字节时确认完整分隔符；成功时整个分隔符写入 q.out。
func (q *quotedCR) takeComma(b byte) bool {
	if len(q.comma) > 1 {
		rest, err := q.src.Peek(len(q.comma) - 1)
		if err != nil || !bytes.Equal(rest, q.comma[1:]) {
			return false
		}
		q.out = append(q.out, b)
		q.out = append(q.out, rest...)
		_, _ = q.src.Discard(len(rest))
		return true
	}
	q.out = append(q.out, b)
	return true
}

// restoreCR 还原 quotedCR 的改写（原地修改 rec）。
func restoreCR(rec []string) []string {
	for i, f := range rec {
		if strings.IndexByte(f, crEsc) < 0 {
			continue
		}
		var sb strings.Builder
		sb.Grow(len(f))
		for j := 0; j < len(f); j++ {
			c := f[j]
			if c == crEsc && j+1 < len(f) {
				j++
				if f[j] == 'r' {
					sb.WriteByte('\r')
				} else {
					sb.WriteByte(f[j])
				}
				continue
			}
			sb.WriteByte(c)
		}
		rec[i] = sb.String()
	}
	return rec
}
