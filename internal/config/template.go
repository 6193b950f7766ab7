package config

import json "github.com/goccy/go-json"

// DefaultTemplateConfig 返回默认配置模板：
// - 组件名采用仓库内置实现；
// - Options 列出全部键，取值与内置默认一致（生成后直接运行行为不变）。
func DefaultTemplateConfig() Config {
	d := Defaults()
	sortYears := false
	cfg := Config{
		OutputDir:  ".",
		Schema:     "auto",
		SortYears:  &sortYears,
		Logging:    Logging{Level: "info", Dir: "", Format: "json"},
		Components: d.Components,
	}
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "comma": ",",
  "lazy_quotes": true
}`)
	cfg.Options.Encoder = json.RawMessage(`{
  "indent": "  ",
  "trailing_newline": false,
  "escape_html": false
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "atomic": true,
  "path_mode": "verbatim",
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}
