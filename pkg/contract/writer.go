package contract

import (
	"context"
	"io"
)

// ArtifactID: 结果工件标识（相对输出根目录的名称，例如 "2021.json"）。
type ArtifactID string

// Writer: 将编码结果持久化到目标介质（文件系统等）。
// 约束：
//  1. 同一 ArtifactID 单写者；覆盖已存在的目标，不合并；
//  2. 流式写入，按字节透传，不读取/修改业务内容；
//  3. ctx 取消需尽快返回；
//  4. 错误直接上抛（不做重试/回退）。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
