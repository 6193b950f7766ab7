package contract

import (
	"fmt"
	"strings"
)

// Column: Row 的字段槽位。
type Column int

const (
	ColYear Column = iota
	ColSubjectID
	ColSubjectName
	ColSubjectType
	ColSubjectCategory
	ColCredits
	ColGrade
	NumColumns
)

// Schema: 固定的表头映射（列名 → 字段槽位）。列名逐字比较，区分大小写，含尾随空白。
type Schema struct {
	Name    string
	Headers [NumColumns]string
}

// SchemaJA 为源数据（成绩导出 CSV）使用的表头。注意 "科目名 " 带尾随空格。
var SchemaJA = Schema{
	Name: "ja",
	Headers: [NumColumns]string{
		ColYear:            "開講年度",
		ColSubjectID:       "科目番号",
		ColSubjectName:     "科目名 ",
		ColSubjectType:     "開講区分",
		ColSubjectCategory: "科目区分",
		ColCredits:         "単位数",
		ColGrade:           "総合評価",
	},
}

// SchemaEN 为字段名本身构成的表头。
var SchemaEN = Schema{
	Name: "en",
	Headers: [NumColumns]string{
		ColYear:            "year",
		ColSubjectID:       "subject_id",
		ColSubjectName:     "subject_name",
		ColSubjectType:     "subject_type",
		ColSubjectCategory: "subject_category",
		ColCredits:         "credits",
		ColGrade:           "grade",
	},
}

// Schemas 为内置映射，按自动识别的优先顺序排列。
var Schemas = []Schema{SchemaJA, SchemaEN}

// SchemaByName 按名称查找内置映射。
func SchemaByName(name string) (Schema, bool) {
	for _, s := range Schemas {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// Layout: 每个字段槽位在数据行中的列下标。
type Layout [NumColumns]int

// Resolve 在表头中按列名定位七个字段；重复列名取首次出现；多余列忽略。
// 缺列时返回包裹 ErrHeaderMissing 的错误并列出全部缺失列名。
func (s Schema) Resolve(header []string) (Layout, error) {
	var lay Layout
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	var missing []string
	for c := Column(0); c < NumColumns; c++ {
		i, ok := pos[s.Headers[c]]
		if !ok {
			missing = append(missing, fmt.Sprintf("%q", s.Headers[c]))
			continue
		}
		lay[c] = i
	}
	if len(missing) > 0 {
		return Layout{}, fmt.Errorf("%w: %s", ErrHeaderMissing, strings.Join(missing, ", "))
	}
	return lay, nil
}

// Detect 依次尝试 candidates，返回首个七列齐全的映射。
// 全部失败时返回第一个候选的缺列错误（提示最具体）。
func Detect(header []string, candidates ...Schema) (Schema, Layout, error) {
	if len(candidates) == 0 {
		candidates = Schemas
	}
	var first error
	for _, s := range candidates {
		lay, err := s.Resolve(header)
		if err == nil {
			return s, lay, nil
		}
		if first == nil {
			first = err
		}
	}
	return Schema{}, Layout{}, first
}

// Row 依据布局从一条记录构造 Row。调用方保证 rec 长度覆盖布局中的最大下标。
func (l Layout) Row(line int, rec []string) Row {
	return Row{
		Line:            line,
		Year:            Year(rec[l[ColYear]]),
		SubjectID:       rec[l[ColSubjectID]],
		SubjectName:     rec[l[ColSubjectName]],
		SubjectType:     rec[l[ColSubjectType]],
		SubjectCategory: rec[l[ColSubjectCategory]],
		Credits:         rec[l[ColCredits]],
		Grade:           rec[l[ColGrade]],
	}
}

// Width 返回布局所需的最小记录长度。
func (l Layout) Width() int {
	w := 0
	for _, i := range l {
		if i+1 > w {
			w = i + 1
		}
	}
	return w
}
