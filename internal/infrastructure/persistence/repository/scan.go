package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

// refScan receives the columns of a LEFT JOINed master data row
type refScan struct {
	id   sql.NullInt64
	code sql.NullString
	name sql.NullString
}

func (s refScan) reference() *entity.Reference {
	if !s.id.Valid {
		return nil
	}
	return &entity.Reference{ID: s.id.Int64, Code: s.code.String, Name: s.name.String}
}

func refID(ref *entity.Reference) sql.NullInt64 {
	if ref == nil || ref.ID == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ref.ID, Valid: true}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// requireRow maps an UPDATE that touched nothing to apperr.ErrNotFound
func requireRow(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, apperr.ErrNotFound)
	}
	return nil
}
