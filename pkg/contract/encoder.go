package contract

import (
	"context"
	"io"
)

// Encoder: 将单个年份的记录序列渲染为输出字节流。
// 约束：
//  1. 保持 subjects 的输入顺序；
//  2. 不引入跨年份状态；同一输入多次调用产出字节一致；
//  3. Ext 返回工件扩展名（含点），供 ArtifactFor 使用。
type Encoder interface {
	Encode(ctx context.Context, year Year, subjects []Subject) (io.Reader, error)
	Ext() string
}
