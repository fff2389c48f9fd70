// internal/service/catalog/domain/repository.go
package domain

import "context"

// ProductRepository 定义目录聚合的持久化接口。
// 位于领域层，由基础设施层实现。
type ProductRepository interface {
	// FindByID 按 ID 查找商品；不存在时返回 apperr.CodeNotFound。
	FindByID(ctx context.Context, id string) (*Product, error)

	// FindByIDs 用一次查询批量取回指定 ID 的商品。
	// 批量富化依赖这个单查询语义，调用方不允许循环调用 FindByID。
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)

	// ListApproved 分页列出可售商品（approved 且 active）。
	ListApproved(ctx context.Context, limit, offset int) ([]Product, error)

	// Save 创建或整体更新一个商品。
	Save(ctx context.Context, product *Product) error

	// UpdateStatus 更新审核状态与上架标记。
	UpdateStatus(ctx context.Context, id string, status ProductStatus, isActive bool) error
}
