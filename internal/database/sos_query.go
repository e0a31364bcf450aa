package database

import (
	"gorm.io/gorm"

	"github.com/patrolhub/patrolhub/internal/model"
)

type SOSQuery struct {
	Query[model.SOSEvent]
	id     uint
	unitID uint
	status string
}

func NewSOSQuery(db *gorm.DB) *SOSQuery {
	return &SOSQuery{
		Query: Query[model.SOSEvent]{
			db:     db,
			limit:  100,
			offset: 0,
			order:  "created_at DESC",
		},
	}
}

func (q *SOSQuery) Order(s string) *SOSQuery {
	q.order = s

	return q
}

func (q *SOSQuery) Limit(n int) *SOSQuery {
	q.limit = n

	return q
}

func (q *SOSQuery) Id(id uint) *SOSQuery {
	q.id = id

	return q
}

func (q *SOSQuery) Unit(id uint) *SOSQuery {
	q.unitID = id

	return q
}

func (q *SOSQuery) Status(status string) *SOSQuery {
	q.status = status

	return q
}

func (q *SOSQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.unitID != 0 {
		tx = tx.Where("unit_id = ?", q.unitID)
	}

	if q.status != "" {
		tx = tx.Where("status = ?", q.status)
	}

	return tx
}

func (q *SOSQuery) Get() []*model.SOSEvent {
	return q.get(q.where().Model(&model.SOSEvent{}))
}

func (q *SOSQuery) One() *model.SOSEvent {
	return q.one(q.where().Model(&model.SOSEvent{}))
}

func (q *SOSQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.SOSEvent{}))
}
