// internal/service/promotion/domain/repository.go
package domain

import (
	"context"
	"time"
)

// DealRepository 定义促销活动聚合的持久化接口。
type DealRepository interface {
	// FindByID 按 ID 查找活动；不存在时返回 apperr.CodeNotFound。
	FindByID(ctx context.Context, id string) (*Deal, error)

	// FindLiveByKind 用一次查询取回指定类型下、在 now 时刻整体生效、
	// 且包含任一指定商品的全部活动，按创建时间倒序。
	// 批量富化的"一次查询"契约建立在这个方法上。
	// 条目级 IsActive 过滤由领域层完成，这里只过滤活动级生效条件。
	FindLiveByKind(ctx context.Context, kind Kind, productIDs []string, now time.Time) ([]Deal, error)

	// ListByKind 分页列出某类型的全部活动（含未发布），供管理端使用。
	ListByKind(ctx context.Context, kind Kind, limit, offset int) ([]Deal, error)

	// Save 创建或整体更新一个活动（条目全量替换）。
	Save(ctx context.Context, deal *Deal) error

	// Delete 删除活动及其条目。
	Delete(ctx context.Context, id string) error
}

// CouponRepository 定义优惠券的持久化接口。
type CouponRepository interface {
	// FindByCode 按唯一码查找；不存在时返回 apperr.CodeNotFound。
	FindByCode(ctx context.Context, code string) (*Coupon, error)

	// Save 创建或更新一张优惠券。码冲突返回 apperr.CodeValidationFailed。
	Save(ctx context.Context, coupon *Coupon) error

	// Delete 删除一张优惠券。
	Delete(ctx context.Context, id string) error
}

// Uploader 是上传服务的出站端口。核心只关心返回的不透明引用。
type Uploader interface {
	Upload(ctx context.Context, filename string, content []byte) (Image, error)
	Remove(ctx context.Context, publicID string) error
}
