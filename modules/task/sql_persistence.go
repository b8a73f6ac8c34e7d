package task

import (
	"context"
	"fmt"

	"github.com/example/task-tracker/domain/task"
	"gorm.io/gorm"
)

// taskRecord is one task row. Position keeps insertion order.
type taskRecord struct {
	UserID      string `gorm:"primaryKey;type:text"`
	ID          string `gorm:"primaryKey;type:text"`
	Position    int    `gorm:"not null;index"`
	Title       string `gorm:"not null;type:text"`
	Description string `gorm:"type:text"`
	Completed   bool   `gorm:"not null;default:false"`
	CreatedAtMS int64  `gorm:"column:created_at_ms;not null"`
	UpdatedAtMS int64  `gorm:"column:updated_at_ms;not null"`
}

// TableName returns the table name for task records.
func (taskRecord) TableName() string {
	return "task_records"
}

// SQLPersistence stores collections in SQLite through GORM.
type SQLPersistence struct {
	db *gorm.DB
}

var _ Persistence = (*SQLPersistence)(nil)

// NewSQLPersistence creates a GORM-backed Persistence.
func NewSQLPersistence(db *gorm.DB) *SQLPersistence {
	return &SQLPersistence{db: db}
}

// Migrate creates or updates the task_records table.
func (p *SQLPersistence) Migrate() error {
	return p.db.AutoMigrate(&taskRecord{})
}

// Name identifies the backend in health reports.
func (p *SQLPersistence) Name() string { return "sqlite" }

// Load returns the user's tasks in insertion order.
func (p *SQLPersistence) Load(ctx context.Context, userID string) ([]task.Task, error) {
	var records []taskRecord
	if err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	tasks := make([]task.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, task.Task{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Completed:   r.Completed,
			CreatedAt:   r.CreatedAtMS,
			UpdatedAt:   r.UpdatedAtMS,
		})
	}
	return tasks, nil
}

// Save replaces the user's rows in a single transaction.
func (p *SQLPersistence) Save(ctx context.Context, userID string, tasks []task.Task) error {
	records := make([]taskRecord, 0, len(tasks))
	for i, t := range tasks {
		records = append(records, taskRecord{
			UserID:      userID,
			ID:          t.ID,
			Position:    i,
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAtMS: t.CreatedAt,
			UpdatedAtMS: t.UpdatedAt,
		})
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&taskRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 100).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	return nil
}
