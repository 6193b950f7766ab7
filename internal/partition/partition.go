// Package partition 按年度把课程记录分桶。
//
// 桶只追加不去重；桶内顺序即输入顺序，桶之间按年度首次出现的顺序迭代。
package partition

import (
	"slices"

	"subjectsplit/pkg/contract"
)

// Buckets 年度 -> 课程列表。零值不可用，请使用 New。
type Buckets struct {
	order []contract.Year
	byKey map[contract.Year][]contract.Subject
	total int
}

// New 创建空的分桶集合。
func New() *Buckets {
	return &Buckets{byKey: make(map[contract.Year][]contract.Subject)}
}

// Add 追加一条记录到其年度桶。
func (b *Buckets) Add(year contract.Year, s contract.Subject) {
	list, ok := b.byKey[year]
	if !ok {
		b.order = append(b.order, year)
	}
	b.byKey[year] = append(list, s)
	b.total++
}

// AddRow 等价于 Add(r.Year, r.Subject())。
func (b *Buckets) AddRow(r contract.Row) { b.Add(r.Year, r.Subject()) }

// Years 返回全部年度。sorted=false 时为首次出现顺序；sorted=true 时按字节序升序。
// 返回切片为副本。
func (b *Buckets) Years(sorted bool) []contract.Year {
	out := make([]contract.Year, len(b.order))
	copy(out, b.order)
	if sorted {
		slices.Sort(out)
	}
	return out
}

// Subjects 返回某年度的课程（按输入顺序）；不存在时返回 nil。
func (b *Buckets) Subjects(year contract.Year) []contract.Subject {
	return b.byKey[year]
}

// Len 年度数量。
func (b *Buckets) Len() int { return len(b.order) }

// Total 记录总数。
func (b *Buckets) Total() int { return b.total }
