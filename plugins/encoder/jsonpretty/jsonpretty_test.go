package jsonpretty

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"subjectsplit/pkg/contract"
)

func encode(t *testing.T, opts *Options, subjects []contract.Subject) string {
	t.Helper()
	e, err := New(opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r, err := e.Encode(context.Background(), "2021", subjects)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

// TestEncodeLayout 键顺序与缩进排版
func TestEncodeLayout(t *testing.T) {
	got := encode(t, nil, []contract.Subject{{ID: "CS101", Name: "Intro", Credits: "2", Type: "A", Category: "Core", Grade: "90"}})
	want := "[\n" +
		"  {\n" +
		"    \"id\": \"CS101\",\n" +
		"    \"name\": \"Intro\",\n" +
		"    \"credits\": \"2\",\n" +
		"    \"type\": \"A\",\n" +
		"    \"category\": \"Core\",\n" +
		"    \"grade\": \"90\"\n" +
		"  }\n" +
		"]"
	if got != want {
		t.Fatalf("layout mismatch:\n%s\nwant:\n%s", got, want)
	}
}

// TestEncodeEscapes 控制字符与行分隔符的转义形式
func TestEncodeEscapes(t *testing.T) {
	in := contract.Subject{
		ID:       "a\u2028b\u2029c",
		Name:     "x\by\fz",
		Credits:  "\x01\x1f",
		Type:     "t\tn\nr\r",
		Category: `q"\u2028`,
		Grade:    `back\`,
	}
	got := encode(t, nil, []contract.Subject{in})
	want := "[\n" +
		"  {\n" +
		"    \"id\": \"a\u2028b\u2029c\",\n" +
		`    "name": "x\by\fz",` + "\n" +
		`    "credits": "\u0001\u001f",` + "\n" +
		`    "type": "t\tn\nr\r",` + "\n" +
		`    "category": "q\"\\u2028",` + "\n" +
		`    "grade": "back\\"` + "\n" +
		"  }\n" +
		"]"
	if got != want {
		t.Fatalf("escape mismatch:\n%s\nwant:\n%s", got, want)
	}
	var back []contract.Subject
	if err := json.Unmarshal([]byte(got), &back); err != nil || back[0] != in {
		t.Fatalf("round trip: %v %+v", err, back)
	}
}

// TestEncodeNoHTMLEscape 非 ASCII 与 HTML 字符原样输出
func TestEncodeNoHTMLEscape(t *testing.T) {
	got := encode(t, nil, []contract.Subject{{Name: "情報<基礎>&演習", Grade: "A+"}})
	var back []contract.Subject
	if err := json.Unmarshal([]byte(got), &back); err != nil {
		t.Fatalf("output not valid json: %v", err)
	}
	if back[0].Name != "情報<基礎>&演習" {
		t.Fatalf("round trip mismatch: %q", back[0].Name)
	}
	if want := `"name": "情報<基礎>&演習"`; !strings.Contains(got, want) {
		t.Fatalf("expect verbatim text %s in %s", want, got)
	}
}

// TestEncodeOptions 尾随换行、HTML 转义与缩进
func TestEncodeOptions(t *testing.T) {
	got := encode(t, &Options{TrailingNewline: true, EscapeHTML: true, Indent: "\t"}, []contract.Subject{{Name: "<x>"}})
	if got[len(got)-1] != '\n' {
		t.Fatalf("expect trailing newline")
	}
	if !strings.Contains(got, `\u003cx\u003e`) {
		t.Fatalf("expect escaped html: %s", got)
	}
	if !strings.Contains(got, "\n\t{") {
		t.Fatalf("expect tab indent: %q", got)
	}
}

// TestEncodeEmpty 空序列
func TestEncodeEmpty(t *testing.T) {
	if got := encode(t, nil, nil); got != "[]" {
		t.Fatalf("expect [], got %q", got)
	}
}

// TestEncodeDeterministic 同一输入多次编码字节一致
func TestEncodeDeterministic(t *testing.T) {
	in := []contract.Subject{{ID: "a"}, {ID: "b", Grade: "C"}}
	if encode(t, nil, in) != encode(t, nil, in) {
		t.Fatalf("output not stable")
	}
}

// TestNewInvalidIndent 缩进仅允许空白
func TestNewInvalidIndent(t *testing.T) {
	if _, err := New(&Options{Indent: "--"}); !errors.Is(err, contract.ErrInvariantViolation) {
		t.Fatalf("expect invariant violation, got %v", err)
	}
}

// TestEncodeCtxCancel 上下文取消
func TestEncodeCtxCancel(t *testing.T) {
	e, _ := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Encode(ctx, "2021", nil); err == nil {
		t.Fatalf("expect ctx error")
	}
	if e.Ext() != ".json" {
		t.Fatalf("ext: %s", e.Ext())
	}
}
