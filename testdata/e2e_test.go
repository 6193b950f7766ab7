package testdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	cfgpkg "subjectsplit/internal/config"
	"subjectsplit/internal/pipeline"
	"subjectsplit/pkg/contract"
)

// expectedSubjects 独立解析英文表头输入，按年度分组构造期望输出。
func expectedSubjects(t *testing.T, inPath string) map[string][]contract.Subject {
	t.Helper()
	f, err := os.Open(inPath)
	if err != nil {
		t.Fatalf("open input: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	col := map[string]int{}
	for i, h := range recs[0] {
		col[h] = i
	}
	out := map[string][]contract.Subject{}
	for _, r := range recs[1:] {
		y := r[col["year"]]
		out[y] = append(out[y], contract.Subject{
			ID:       r[col["subject_id"]],
			Name:     r[col["subject_name"]],
			Credits:  r[col["credits"]],
			Type:     r[col["subject_type"]],
			Category: r[col["subject_category"]],
			Grade:    r[col["grade"]],
		})
	}
	return out
}

func baseConfig(input, outDir string) cfgpkg.Config {
	cfg := cfgpkg.Merge(cfgpkg.Defaults(), cfgpkg.DefaultTemplateConfig())
	cfg.Input = input
	cfg.OutputDir = outDir
	cfg.Logging.Level = "error"
	return cfg
}

func runPipeline(t *testing.T, cfg cfgpkg.Config) error {
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return err
	}
	return pipeline.Run(context.Background(), comp, set, nil)
}

func outputNames(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// 日文表头（BOM、CRLF、引号内逗号）→ 与黄金文件逐字节一致
func TestE2EJapaneseGolden(t *testing.T) {
	in := filepath.Join("files", "grades-ja.csv")
	outDir := t.TempDir()
	if err := runPipeline(t, baseConfig(in, outDir)); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	golden := outputNames(t, filepath.Join("files", "golden"))
	if got := outputNames(t, outDir); strings.Join(got, ",") != strings.Join(golden, ",") {
		t.Fatalf("files: %v want %v", got, golden)
	}
	for _, name := range golden {
		want, _ := os.ReadFile(filepath.Join("files", "golden", name))
		got, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if string(got) != string(want) {
			t.Fatalf("%s mismatch\nwant:\n%s\ngot:\n%s", name, want, got)
		}
	}
}

// 英文表头（列乱序、额外列、空值、多行字段、空行）→ 与独立解析结果一致
func TestE2EEnglishRoundTrip(t *testing.T) {
	in := filepath.Join("files", "grades-en.csv")
	outDir := t.TempDir()
	if err := runPipeline(t, baseConfig(in, outDir)); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	want := expectedSubjects(t, in)
	var years []string
	for y := range want {
		years = append(years, y+".json")
	}
	sort.Strings(years)
	if got := outputNames(t, outDir); strings.Join(got, ",") != strings.Join(years, ",") {
		t.Fatalf("files: %v want %v", got, years)
	}
	for y, subjects := range want {
		b, err := os.ReadFile(filepath.Join(outDir, y+".json"))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var got []contract.Subject
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if fmt.Sprint(got) != fmt.Sprint(subjects) {
			t.Fatalf("%s: got %+v want %+v", y, got, subjects)
		}
	}
	b, _ := os.ReadFile(filepath.Join(outDir, "2021.json"))
	if !strings.Contains(string(b), `"Systems \"Lab\" <I>"`) || !strings.Contains(string(b), `"Core & Lab"`) {
		t.Fatalf("verbatim text lost: %s", b)
	}
}

// 固定 schema=ja 时英文表头被拒绝，且零输出
func TestE2ESchemaMismatch(t *testing.T) {
	in := filepath.Join("files", "grades-en.csv")
	outDir := t.TempDir()
	cfg := baseConfig(in, outDir)
	cfg.Schema = "ja"
	err := runPipeline(t, cfg)
	if !errors.Is(err, contract.ErrHeaderMissing) {
		t.Fatalf("expect header missing, got %v", err)
	}
	if got := outputNames(t, outDir); len(got) != 0 {
		t.Fatalf("no output expected: %v", got)
	}
}

// strict 路径模式：逃逸年度被拒绝为 WriteError
func TestE2EStrictPathMode(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	content := "year,subject_id,subject_name,subject_type,subject_category,credits,grade\n" +
		"2021,A,a,t,c,1,x\n../escape,B,b,t,c,2,y\n"
	if err := os.WriteFile(in, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	outDir := filepath.Join(dir, "out")
	cfg := baseConfig(in, outDir)
	cfg.Options.Writer = json.RawMessage(`{"path_mode":"strict"}`)
	err := runPipeline(t, cfg)
	var we *contract.WriteError
	if !errors.As(err, &we) || !errors.Is(err, contract.ErrPathInvalid) {
		t.Fatalf("expect WriteError(path invalid), got %v", err)
	}
	if got := outputNames(t, outDir); strings.Join(got, ",") != "2021.json" {
		t.Fatalf("files: %v", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.json")); err == nil {
		t.Fatalf("escaped file must not be written")
	}
}

// 编码选项：末尾换行
func TestE2ETrailingNewline(t *testing.T) {
	in := filepath.Join("files", "grades-ja.csv")
	outDir := t.TempDir()
	cfg := baseConfig(in, outDir)
	cfg.Options.Encoder = json.RawMessage(`{"trailing_newline":true}`)
	if err := runPipeline(t, cfg); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(outDir, "2022.json"))
	want, _ := os.ReadFile(filepath.Join("files", "golden", "2022.json"))
	if string(got) != string(want)+"\n" {
		t.Fatalf("trailing newline mismatch: %q", got)
	}
}
