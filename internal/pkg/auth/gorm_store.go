// internal/pkg/auth/gorm_store.go
package auth

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"bazaar/internal/pkg/apperr"
)

// PrincipalModel 是顾客主体的持久化模型。
// TokenVersion 在改密或强制下线时由账号服务自增，
// 这里只读，用于拒绝携带旧版本令牌的请求。
type PrincipalModel struct {
	CustomerID   string `gorm:"primaryKey;size:64"`
	TokenVersion int    `gorm:"not null;default:0"`
}

func (PrincipalModel) TableName() string { return "principal" }

// GormPrincipalRepository 是 PrincipalRepository 的 GORM 实现。
type GormPrincipalRepository struct {
	db *gorm.DB
}

func NewGormPrincipalRepository(db *gorm.DB) *GormPrincipalRepository {
	return &GormPrincipalRepository{db: db}
}

func (r *GormPrincipalRepository) TokenVersion(ctx context.Context, customerID string) (int, error) {
	var model PrincipalModel
	err := r.db.WithContext(ctx).First(&model, "customer_id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.New(apperr.CodeNotFound, "unknown customer %s", customerID)
	}
	if err != nil {
		return 0, errors.Wrap(err, "query principal")
	}
	return model.TokenVersion, nil
}
