package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"promo-script-ai-api/internal/domain/entity"
	"promo-script-ai-api/pkg/tracer"
)

// generationRow script_generations 表行；脚本以 jsonb 存储，关键词使用 text[]
type generationRow struct {
	ID          string                   `gorm:"primaryKey;type:uuid"`
	ProductName string                   `gorm:"type:varchar(200);not null"`
	Provider    string                   `gorm:"type:varchar(32)"`
	Model       string                   `gorm:"type:varchar(64)"`
	Request     entity.ScriptRequest     `gorm:"type:jsonb;serializer:json"`
	Variations  []entity.ScriptVariation `gorm:"type:jsonb;serializer:json"`
	Keywords    pq.StringArray           `gorm:"type:text[]"`
	CreatedAt   time.Time                `gorm:"index"`
}

func (generationRow) TableName() string {
	return "script_generations"
}

func toGenerationRow(r *entity.GenerationRecord) *generationRow {
	return &generationRow{
		ID:          r.ID,
		ProductName: r.ProductName,
		Provider:    r.Provider,
		Model:       r.Model,
		Request:     r.Request,
		Variations:  r.Variations,
		Keywords:    pq.StringArray(r.Keywords),
		CreatedAt:   r.CreatedAt,
	}
}

func (row *generationRow) toEntity() *entity.GenerationRecord {
	return &entity.GenerationRecord{
		ID:          row.ID,
		ProductName: row.ProductName,
		Provider:    row.Provider,
		Model:       row.Model,
		Request:     row.Request,
		Variations:  row.Variations,
		Keywords:    []string(row.Keywords),
		CreatedAt:   row.CreatedAt,
	}
}

// GenerationRepository 生成历史仓储实现
type GenerationRepository struct {
	client *Client
}

// NewGenerationRepository 创建生成历史仓储
func NewGenerationRepository(client *Client) *GenerationRepository {
	return &GenerationRepository{client: client}
}

// Create 保存生成记录
func (r *GenerationRepository) Create(ctx context.Context, record *entity.GenerationRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRepository.Create")
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(toGenerationRow(record)).Error; err != nil {
		tracer.Fail(span, err)
		return fmt.Errorf("failed to create generation: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取记录
func (r *GenerationRepository) GetByID(ctx context.Context, id string) (*entity.GenerationRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRepository.GetByID")
	defer span.End()

	var row generationRow
	if err := r.client.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracer.Fail(span, err)
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return row.toEntity(), nil
}

// ListRecent 按创建时间倒序列出最近的记录
func (r *GenerationRepository) ListRecent(ctx context.Context, limit int) ([]*entity.GenerationRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRepository.ListRecent")
	defer span.End()

	var rows []generationRow
	if err := r.client.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		tracer.Fail(span, err)
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}

	out := make([]*entity.GenerationRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}
