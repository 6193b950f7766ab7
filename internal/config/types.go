package config

import (
	json "github.com/goccy/go-json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Input 只来自命令行位置参数（"-" 表示 STDIN）。
	// 不做非空校验：空串或纯空白路径交由 Reader 报告为 ParseError。
	Input string `json:"-"`
	// OutputDir/Schema 为常用选项的快捷方式，装配时写入对应组件的 Options。
	OutputDir string `json:"output_dir,omitempty"`
	Schema    string `json:"schema,omitempty" validate:"omitempty,oneof=auto ja en"`
	// SortYears: nil 表示未设置（Merge 不覆盖）。
	SortYears *bool   `json:"sort_years,omitempty"`
	Logging   Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: Dir 为空时不写日志。
type Logging struct {
	Level  string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir    string `json:"dir"`
	Format string `json:"format" validate:"omitempty,oneof=json pretty"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader  string `json:"reader"`
	Encoder string `json:"encoder"`
	Writer  string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader  json.RawMessage `json:"reader,omitempty"`
	Encoder json.RawMessage `json:"encoder,omitempty"`
	Writer  json.RawMessage `json:"writer,omitempty"`
}
