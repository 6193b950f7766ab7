package contract

// Year: 分区键。保留输入中的原样文本（不去空白、不做规范化）。
type Year string

// Row: 输入文件中的一条数据行（按列名映射后的七个字段）。
// 约束：
// - 所有字段均为原始文本，不做数值转换；
// - 空字符串是合法值，缺列由 Reader 在解析期拒绝；
// - Line 仅用于诊断（物理行号，自 1 起），不参与序列化。
type Row struct {
	Line            int
	Year            Year
	SubjectID       string
	SubjectName     string
	SubjectType     string
	SubjectCategory string
	Credits         string
	Grade           string
}

// Subject: 输出形态（去掉 Year，字段改名）。
// JSON 键顺序即字段声明顺序：id, name, credits, type, category, grade。
type Subject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Credits  string `json:"credits"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Grade    string `json:"grade"`
}

// Subject 将 Row 投影为输出记录；文本逐字保留。
func (r Row) Subject() Subject {
	return Subject{
		ID:       r.SubjectID,
		Name:     r.SubjectName,
		Credits:  r.Credits,
		Type:     r.SubjectType,
		Category: r.SubjectCategory,
		Grade:    r.Grade,
	}
}
