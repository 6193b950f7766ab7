package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"subjectsplit/pkg/contract"
)

// EnvPrefix 为全部环境变量覆盖项的前缀。
const EnvPrefix = "SUBJECTSPLIT_"

// Defaults 返回带有安全默认值的 Config 雏形（复现默认行为：CWD 输出、自动表头、不写日志）。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info", Format: "json"},
		Components: Components{
			Reader:  "csv",
			Encoder: "json",
			Writer:  "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
// 错误均包裹 contract.ErrConfigInvalid。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", contract.ErrConfigInvalid, err)
		}
		defer f.Close()
		r = f
	default:
		return cfg, fmt.Errorf("%w: no config source provided", contract.ErrConfigInvalid)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", contract.ErrConfigInvalid, sourceName(path, raw), err)
	}
	return cfg, nil
}

func sourceName(path string, raw []byte) string {
	if len(raw) > 0 {
		return EnvPrefix + "CONFIG_JSON"
	}
	return path
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if strings.TrimSpace(over.Input) != "" {
		out.Input = over.Input
	}
	if strings.TrimSpace(over.OutputDir) != "" {
		out.OutputDir = strings.TrimSpace(over.OutputDir)
	}
	if strings.TrimSpace(over.Schema) != "" {
		out.Schema = strings.TrimSpace(over.Schema)
	}
	if over.SortYears != nil {
		v := *over.SortYears
		out.SortYears = &v
	}
	if strings.TrimSpace(over.Logging.Level) != "" {
		out.Logging.Level = strings.TrimSpace(over.Logging.Level)
	}
	if strings.TrimSpace(over.Logging.Dir) != "" {
		out.Logging.Dir = strings.TrimSpace(over.Logging.Dir)
	}
	if strings.TrimSpace(over.Logging.Format) != "" {
		out.Logging.Format = strings.TrimSpace(over.Logging.Format)
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Encoder != "" {
		out.Components.Encoder = over.Components.Encoder
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	// Options（完整替换对应键）
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Encoder) > 0 {
		out.Options.Encoder = cloneRaw(over.Options.Encoder)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 SUBJECTSPLIT_；集合之外的键忽略。
// 支持：OUTPUT_DIR, SCHEMA, SORT_YEARS, LOG_LEVEL, LOG_DIR, LOG_FORMAT,
// COMPONENTS_{READER,ENCODER,WRITER}, OPTIONS_{READER,ENCODER,WRITER}_JSON
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := kv[:eq]
		val := strings.TrimSpace(kv[eq+1:])
		if val == "" {
			// 空值视为未设置（.env 模板中的占位）
			continue
		}
		switch strings.TrimPrefix(key, EnvPrefix) {
		case "OUTPUT_DIR":
			over.OutputDir = val
		case "SCHEMA":
			over.Schema = val
		case "SORT_YEARS":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return over, fmt.Errorf("%w: %s: %q is not a boolean", contract.ErrConfigInvalid, key, val)
			}
			over.SortYears = &b
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "LOG_DIR":
			over.Logging.Dir = val
		case "LOG_FORMAT":
			over.Logging.Format = val
		case "COMPONENTS_READER":
			over.Components.Reader = val
		case "COMPONENTS_ENCODER":
			over.Components.Encoder = val
		case "COMPONENTS_WRITER":
			over.Components.Writer = val
		case "OPTIONS_READER_JSON":
			raw, err := rawObject(key, val)
			if err != nil {
				return over, err
			}
			over.Options.Reader = raw
		case "OPTIONS_ENCODER_JSON":
			raw, err := rawObject(key, val)
			if err != nil {
				return over, err
			}
			over.Options.Encoder = raw
		case "OPTIONS_WRITER_JSON":
			raw, err := rawObject(key, val)
			if err != nil {
				return over, err
			}
			over.Options.Writer = raw
		default:
			// CONFIG_FILE/CONFIG_JSON 由入口处理；其余忽略。
		}
	}
	return over, nil
}

// rawObject 校验值为 JSON 对象。
func rawObject(key, val string) (json.RawMessage, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", contract.ErrConfigInvalid, key, err)
	}
	return json.RawMessage(val), nil
}

// withKey 在原样 JSON 对象上设置单个键（其余键保持不变）。
func withKey(raw json.RawMessage, key string, val any) (json.RawMessage, error) {
	m := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errors.New("options must be a JSON object")
		}
	}
	m[key] = val
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
