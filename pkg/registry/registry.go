package registry

import (
	"bytes"

	json "github.com/goccy/go-json"

	"subjectsplit/pkg/contract"
	jpretty "subjectsplit/plugins/encoder/jsonpretty"
	rcsv "subjectsplit/plugins/reader/csvfile"
	wfs "subjectsplit/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewEncoder 工厂签名：接收原样 JSON Options。
type NewEncoder func(raw json.RawMessage) (contract.Encoder, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// csv: 带表头的分隔文本（文件或 STDIN）
	"csv": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rcsv.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rcsv.New(&opts)
	},
}

// Encoder 工厂注册表。
var Encoder = map[string]NewEncoder{
	// json: 缩进 JSON 数组
	"json": func(raw json.RawMessage) (contract.Encoder, error) {
		var opts jpretty.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return jpretty.New(&opts)
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}
