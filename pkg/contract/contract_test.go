package contract

import (
	"errors"
	"strings"
	"testing"
)

// TestArtifactFor 验证年份原样拼接扩展名。
func TestArtifactFor(t *testing.T) {
	tests := []struct {
		name     string
		year     Year
		expected string
	}{
		{"普通年份", "2021", "2021.json"},
		{"空年份", "", ".json"},
		{"带空格", " 2021 ", " 2021 .json"},
		{"路径分隔符原样保留", "a/b", "a/b.json"},
		{"父目录原样保留", "../x", "../x.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArtifactFor(tt.year, ".json"); string(got) != tt.expected {
				t.Errorf("ArtifactFor(%q) = %q, expected %q", tt.year, got, tt.expected)
			}
		})
	}
}

// TestRowSubject 验证投影逐字保留且丢弃 Year。
func TestRowSubject(t *testing.T) {
	r := Row{Line: 2, Year: "2021", SubjectID: " CS101", SubjectName: "Intro ", SubjectType: "A", SubjectCategory: "", Credits: "2.0", Grade: "A+"}
	s := r.Subject()
	want := Subject{ID: " CS101", Name: "Intro ", Credits: "2.0", Type: "A", Category: "", Grade: "A+"}
	if s != want {
		t.Fatalf("投影不一致: %+v", s)
	}
}

// TestSchemaResolve 验证按列名定位（与列顺序无关、忽略多余列）。
func TestSchemaResolve(t *testing.T) {
	header := []string{"grade", "extra", "credits", "subject_category", "subject_type", "subject_name", "subject_id", "year"}
	lay, err := SchemaEN.Resolve(header)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if lay[ColYear] != 7 || lay[ColGrade] != 0 || lay[ColCredits] != 2 {
		t.Fatalf("布局错误: %v", lay)
	}
	if lay.Width() != 8 {
		t.Fatalf("width: %d", lay.Width())
	}
	rec := []string{"90", "x", "2", "Core", "A", "Intro", "CS101", "2021"}
	row := lay.Row(2, rec)
	if row.Year != "2021" || row.SubjectID != "CS101" || row.Grade != "90" || row.Line != 2 {
		t.Fatalf("row 映射错误: %+v", row)
	}
}

// TestSchemaResolveMissing 缺列报错并列出列名。
func TestSchemaResolveMissing(t *testing.T) {
	_, err := SchemaEN.Resolve([]string{"year", "subject_id", "subject_name", "subject_type", "subject_category", "credits"})
	if !errors.Is(err, ErrHeaderMissing) {
		t.Fatalf("want ErrHeaderMissing got %v", err)
	}
	if !strings.Contains(err.Error(), `"grade"`) {
		t.Fatalf("错误信息应包含缺失列: %v", err)
	}
}

// TestSchemaJATrailingSpace "科目名 " 必须带尾随空格才算匹配。
func TestSchemaJATrailingSpace(t *testing.T) {
	header := []string{"開講年度", "科目番号", "科目名", "開講区分", "科目区分", "単位数", "総合評価"}
	if _, err := SchemaJA.Resolve(header); !errors.Is(err, ErrHeaderMissing) {
		t.Fatalf("无尾随空格不应匹配: %v", err)
	}
	header[2] = "科目名 "
	if _, err := SchemaJA.Resolve(header); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}

// TestDetect 自动识别按优先顺序选择映射。
func TestDetect(t *testing.T) {
	s, _, err := Detect([]string{"year", "subject_id", "subject_name", "subject_type", "subject_category", "credits", "grade"})
	if err != nil || s.Name != "en" {
		t.Fatalf("detect en: %v %q", err, s.Name)
	}
	s, _, err = Detect(SchemaJA.Headers[:])
	if err != nil || s.Name != "ja" {
		t.Fatalf("detect ja: %v %q", err, s.Name)
	}
	_, _, err = Detect([]string{"a", "b"})
	if !errors.Is(err, ErrHeaderMissing) || !strings.Contains(err.Error(), "開講年度") {
		t.Fatalf("应返回首个候选的缺列错误: %v", err)
	}
	if _, ok := SchemaByName("en"); !ok {
		t.Fatalf("SchemaByName en")
	}
	if _, ok := SchemaByName("auto"); ok {
		t.Fatalf("auto 不是具体映射")
	}
}

// TestErrorTypes 验证错误包裹与信息。
func TestErrorTypes(t *testing.T) {
	pe := &ParseError{Path: "in.csv", Line: 3, Row: 2, Err: ErrInvalidUTF8}
	if !errors.Is(pe, ErrInvalidUTF8) || !strings.Contains(pe.Error(), "record 2 (line 3)") {
		t.Fatalf("parse error: %v", pe)
	}
	he := &ParseError{Path: "in.csv", Line: 1, Err: ErrHeaderMissing}
	if !strings.Contains(he.Error(), "header") {
		t.Fatalf("header error: %v", he)
	}
	oe := &ParseError{Path: "in.csv", Err: errors.New("no such file")}
	if oe.Error() != "parse in.csv: no such file" {
		t.Fatalf("open error: %v", oe)
	}
	se := &SerializeError{Year: "2021", Err: errors.New("boom")}
	if !strings.Contains(se.Error(), `"2021"`) {
		t.Fatalf("serialize error: %v", se)
	}
	we := &WriteError{Year: "2021", ID: "2021.json", Err: ErrPathInvalid}
	if !errors.Is(we, ErrPathInvalid) || !strings.HasPrefix(we.Error(), "write 2021.json") {
		t.Fatalf("write error: %v", we)
	}
}
