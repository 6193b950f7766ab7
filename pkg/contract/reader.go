package contract

import "context"

// Reader: 记录源抽象。
// 约束：
// 1) 按文件顺序逐行回调，不预读整个文件到内存；
// 2) 只负责列名映射与字段存在性，不做业务校验或类型转换；
// 3) 文件句柄在 Iterate 返回前释放；
// 4) 不在内部起并发；yield 返回错误时立即终止并原样上抛。
type Reader interface {
	Iterate(ctx context.Context, path string, yield func(row Row) error) error
}
