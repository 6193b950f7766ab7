package partition

import (
	"reflect"
	"testing"

	"subjectsplit/pkg/contract"
)

func subj(id string) contract.Subject { return contract.Subject{ID: id} }

// 首次出现顺序 + 桶内输入顺序
func TestInsertionOrder(t *testing.T) {
	b := New()
	b.Add("2022", subj("A"))
	b.Add("2021", subj("B"))
	b.Add("2022", subj("C"))
	b.Add("2021", subj("D"))

	if got := b.Years(false); !reflect.DeepEqual(got, []contract.Year{"2022", "2021"}) {
		t.Fatalf("years: %v", got)
	}
	if got := b.Subjects("2022"); !reflect.DeepEqual(got, []contract.Subject{subj("A"), subj("C")}) {
		t.Fatalf("2022: %v", got)
	}
	if got := b.Subjects("2021"); !reflect.DeepEqual(got, []contract.Subject{subj("B"), subj("D")}) {
		t.Fatalf("2021: %v", got)
	}
	if b.Len() != 2 || b.Total() != 4 {
		t.Fatalf("len=%d total=%d", b.Len(), b.Total())
	}
}

// 排序选项：字节序升序，且不影响插入顺序
func TestSortedYears(t *testing.T) {
	b := New()
	for _, y := range []contract.Year{"2023", "", "2019", "2021"} {
		b.Add(y, subj(string(y)))
	}
	if got := b.Years(true); !reflect.DeepEqual(got, []contract.Year{"", "2019", "2021", "2023"}) {
		t.Fatalf("sorted: %v", got)
	}
	if got := b.Years(false); got[0] != "2023" {
		t.Fatalf("insertion order changed: %v", got)
	}
}

// 不去重：完全相同的记录保留两份
func TestNoDedup(t *testing.T) {
	b := New()
	r := contract.Row{Year: "2021", SubjectID: "X", Grade: "A"}
	b.AddRow(r)
	b.AddRow(r)
	if n := len(b.Subjects("2021")); n != 2 {
		t.Fatalf("expect 2 got %d", n)
	}
}

func TestEmpty(t *testing.T) {
	b := New()
	if b.Len() != 0 || len(b.Years(true)) != 0 || b.Subjects("x") != nil {
		t.Fatalf("empty buckets not empty")
	}
}
