package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/aethra/fleetdesk/internal/engine"
	"github.com/aethra/fleetdesk/internal/security"
)

// OptionSource loads value/label pairs for a server-bound filter dropdown
// from a reference table (roles, organizations, vehicle types, plans).
type OptionSource struct {
	db       *gorm.DB
	table    string
	valueCol string
	labelCol string
}

// NewOptionSource validates the identifiers up front.
func NewOptionSource(db *gorm.DB, table, valueCol, labelCol string) (*OptionSource, error) {
	for _, name := range []string{table, valueCol, labelCol} {
		if err := security.ValidateIdentifier(name); err != nil {
			return nil, fmt.Errorf("invalid option source: %w", err)
		}
	}
	return &OptionSource{db: db, table: table, valueCol: valueCol, labelCol: labelCol}, nil
}

// Load fetches the live options, soft-deleted rows excluded, ordered by
// label.
func (o *OptionSource) Load(ctx context.Context) ([]engine.FilterOption, error) {
	type pair struct {
		Value string `gorm:"column:v"`
		Label string `gorm:"column:l"`
	}

	var pairs []pair
	err := o.db.WithContext(ctx).Table(o.table).
		Select(fmt.Sprintf("%s::text AS v, %s AS l",
			security.QuoteIdentifier(o.valueCol), security.QuoteIdentifier(o.labelCol))).
		Where("deleted_at IS NULL").
		Order(security.QuoteIdentifier(o.labelCol) + " ASC").
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load options from %s: %w", o.table, err)
	}

	options := make([]engine.FilterOption, len(pairs))
	for i, p := range pairs {
		options[i] = engine.FilterOption{Value: p.Value, Label: p.Label}
	}
	return options, nil
}
