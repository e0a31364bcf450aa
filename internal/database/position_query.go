package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/patrolhub/patrolhub/internal/model"
)

type PositionQuery struct {
	Query[model.Position]
	unitID uint
	after  time.Time
}

func NewPositionQuery(db *gorm.DB) *PositionQuery {
	return &PositionQuery{
		Query: Query[model.Position]{
			db:     db,
			limit:  500,
			offset: 0,
			order:  "created_at DESC",
		},
	}
}

func (q *PositionQuery) Order(s string) *PositionQuery {
	q.order = s

	return q
}

func (q *PositionQuery) Limit(n int) *PositionQuery {
	q.limit = n

	return q
}

func (q *PositionQuery) Unit(id uint) *PositionQuery {
	q.unitID = id

	return q
}

func (q *PositionQuery) After(t time.Time) *PositionQuery {
	q.after = t

	return q
}

func (q *PositionQuery) where() *gorm.DB {
	tx := q.db

	if q.unitID != 0 {
		tx = tx.Where("unit_id = ?", q.unitID)
	}

	if !q.after.IsZero() {
		tx = tx.Where("created_at > ?", q.after)
	}

	return tx
}

func (q *PositionQuery) Get() []*model.Position {
	return q.get(q.where().Model(&model.Position{}))
}

func (q *PositionQuery) One() *model.Position {
	return q.one(q.where().Model(&model.Position{}))
}

func (q *PositionQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Position{}))
}
