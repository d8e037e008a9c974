// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"promo-script-ai-api/internal/domain/entity"
)

// GenerationRepository 脚本生成历史仓储接口
type GenerationRepository interface {
	// Create 保存生成记录
	Create(ctx context.Context, record *entity.GenerationRecord) error

	// GetByID 根据 ID 获取记录，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.GenerationRecord, error)

	// ListRecent 按创建时间倒序列出最近的记录
	ListRecent(ctx context.Context, limit int) ([]*entity.GenerationRecord, error)
}
