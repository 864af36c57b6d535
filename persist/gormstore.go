package persist

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BaSui01/agentcanvas/graph"
	"github.com/BaSui01/agentcanvas/types"
)

// workflowRow is the database row holding one serialized workflow graph.
type workflowRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	Document    []byte `gorm:"type:blob"`
	UpdatedAt   time.Time
}

func (workflowRow) TableName() string { return "workflow_documents" }

// GormStore is the Store implementation backed by a relational database
// through GORM. The document is stored as one JSON blob per workflow;
// name, description and the update timestamp are lifted into columns for
// listing queries.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore creates a store over the given database and migrates its
// table.
func NewGormStore(db *gorm.DB, logger *zap.Logger) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&workflowRow{}); err != nil {
		return nil, types.NewError(types.ErrInternalError, "workflow table migration failed").WithCause(err)
	}
	return &GormStore{
		db:     db,
		logger: logger.With(zap.String("component", "gorm_store")),
	}, nil
}

// Save upserts the document under the workflow id.
func (s *GormStore) Save(ctx context.Context, workflowID string, doc graph.Document) error {
	doc.ID = workflowID
	payload, err := json.Marshal(doc)
	if err != nil {
		return types.NewError(types.ErrSaveFailed, "document encoding failed").WithCause(err)
	}

	row := workflowRow{
		ID:          workflowID,
		Name:        doc.Name,
		Description: doc.Description,
		Document:    payload,
		UpdatedAt:   doc.UpdatedAt,
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "document", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return types.NewError(types.ErrSaveFailed, "workflow save failed").
			WithRetryable(true).WithCause(err)
	}
	return nil
}

// Load fetches the document for the workflow id. An unknown id yields an
// empty document, not an error.
func (s *GormStore) Load(ctx context.Context, workflowID string) (graph.Document, error) {
	var row workflowRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", workflowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return graph.Document{ID: workflowID}, nil
	}
	if err != nil {
		return graph.Document{}, types.NewError(types.ErrLoadFailed, "workflow load failed").
			WithRetryable(true).WithCause(err)
	}

	var doc graph.Document
	if err := json.Unmarshal(row.Document, &doc); err != nil {
		return graph.Document{}, types.NewError(types.ErrLoadFailed, "stored document is corrupt").WithCause(err)
	}
	doc.ID = row.ID
	doc.Name = row.Name
	doc.Description = row.Description
	doc.UpdatedAt = row.UpdatedAt
	return doc, nil
}

// List returns id, name and update time of every stored workflow, most
// recently updated first.
func (s *GormStore) List(ctx context.Context) ([]graph.Document, error) {
	var rows []workflowRow
	err := s.db.WithContext(ctx).
		Select("id", "name", "description", "updated_at").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrLoadFailed, "workflow list failed").
			WithRetryable(true).WithCause(err)
	}

	out := make([]graph.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, graph.Document{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return out, nil
}

// Delete removes a stored workflow. Deleting an unknown id is a no-op.
func (s *GormStore) Delete(ctx context.Context, workflowID string) error {
	err := s.db.WithContext(ctx).Delete(&workflowRow{}, "id = ?", workflowID).Error
	if err != nil {
		return types.NewError(types.ErrSaveFailed, "workflow delete failed").
			WithRetryable(true).WithCause(err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
