package database

import (
	"gorm.io/gorm"

	"github.com/patrolhub/patrolhub/internal/model"
)

type UnitQuery struct {
	Query[model.Unit]
	id       uint
	callsign string
	online   *bool
}

func NewUnitQuery(db *gorm.DB) *UnitQuery {
	return &UnitQuery{
		Query: Query[model.Unit]{
			db:     db,
			limit:  0,
			offset: 0,
			order:  "callsign",
		},
	}
}

func (q *UnitQuery) Order(s string) *UnitQuery {
	q.order = s

	return q
}

func (q *UnitQuery) Limit(n int) *UnitQuery {
	q.limit = n

	return q
}

func (q *UnitQuery) Id(id uint) *UnitQuery {
	q.id = id

	return q
}

func (q *UnitQuery) Callsign(callsign string) *UnitQuery {
	q.callsign = callsign

	return q
}

func (q *UnitQuery) Online(b bool) *UnitQuery {
	q.online = &b

	return q
}

func (q *UnitQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.callsign != "" {
		tx = tx.Where("callsign = ?", q.callsign)
	}

	if q.online != nil {
		tx = tx.Where("online = ?", *q.online)
	}

	return tx
}

func (q *UnitQuery) Get() []*model.Unit {
	return q.get(q.where().Model(&model.Unit{}))
}

func (q *UnitQuery) One() *model.Unit {
	return q.one(q.where().Model(&model.Unit{}))
}

func (q *UnitQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Unit{}))
}

func (q *UnitQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Unit{}), updates)
}

func (q *UnitQuery) UpdateRows(updates map[string]any) (int64, error) {
	return q.update(q.where().Model(&model.Unit{}), updates)
}
