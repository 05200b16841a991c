package pagination

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope pages newest first. table qualifies the columns for joined queries
// and may be empty.
func Scope(table string, params Params) (func(*gorm.DB) *gorm.DB, error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	createdAt := clause.Column{Table: table, Name: "created_at"}
	id := clause.Column{Table: table, Name: "id"}
	return func(db *gorm.DB) *gorm.DB {
		if cursor != nil {
			db = db.Where("(? < ?) OR (? = ? AND ? < ?)",
				createdAt, cursor.CreatedAt,
				createdAt, cursor.CreatedAt,
				id, cursor.ID,
			)
		}
		return db.
			Order(clause.OrderByColumn{Column: createdAt, Desc: true}).
			Order(clause.OrderByColumn{Column: id, Desc: true}).
			Limit(LimitWithBuffer(params.Limit))
	}, nil
}
