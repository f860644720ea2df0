package schema

// Table describes one base table. Engine-specific extras are nil elsewhere.
type Table struct {
	Name    string  `db:"table_name" json:"name" yaml:"name"`
	Schema  string  `db:"table_schema" json:"schema" yaml:"schema"`
	Comment *string `db:"comment" json:"comment" yaml:"comment"`

	Collation *string `db:"collation" json:"collation,omitempty" yaml:"collation,omitempty"` // MySQL
	Engine    *string `db:"engine" json:"engine,omitempty" yaml:"engine,omitempty"`          // MySQL
	Owner     *string `db:"owner" json:"owner,omitempty" yaml:"owner,omitempty"`             // Postgres, CockroachDB
	Catalog   *string `db:"catalog" json:"catalog,omitempty" yaml:"catalog,omitempty"`       // SQL Server
	SQL       *string `db:"sql" json:"sql,omitempty" yaml:"sql,omitempty"`                   // SQLite creation statement
}

// Column describes one column of a base table.
//
// IsUnique, IsPrimaryKey and the ForeignKey* fields only reflect
// single-column constraints. A column that is part of a composite key
// reports none of them; use Inspector.ForeignKeys for the constraint view.
type Column struct {
	Name     string `json:"name" yaml:"name"`
	Table    string `json:"table" yaml:"table"`
	Schema   string `json:"schema" yaml:"schema"`
	DataType string `json:"data_type" yaml:"data_type"`

	// MaxLength is in characters; -1 means unbounded (varchar(max)).
	MaxLength        *int64 `json:"max_length" yaml:"max_length"`
	NumericPrecision *int64 `json:"numeric_precision" yaml:"numeric_precision"`
	NumericScale     *int64 `json:"numeric_scale" yaml:"numeric_scale"`

	IsNullable bool `json:"is_nullable" yaml:"is_nullable"`

	// DefaultValue is nil, a string, an int64, a float64 or decoded JSON.
	// Always nil for generated columns.
	DefaultValue         any     `json:"default_value" yaml:"default_value"`
	IsGenerated          bool    `json:"is_generated" yaml:"is_generated"`
	GenerationExpression *string `json:"generation_expression" yaml:"generation_expression"`

	IsUnique         bool `json:"is_unique" yaml:"is_unique"`
	IsPrimaryKey     bool `json:"is_primary_key" yaml:"is_primary_key"`
	HasAutoIncrement bool `json:"has_auto_increment" yaml:"has_auto_increment"`

	ForeignKeySchema *string `json:"foreign_key_schema" yaml:"foreign_key_schema"`
	ForeignKeyTable  *string `json:"foreign_key_table" yaml:"foreign_key_table"`
	ForeignKeyColumn *string `json:"foreign_key_column" yaml:"foreign_key_column"`

	Comment *string `json:"comment" yaml:"comment"`
}

// ColumnRef is the lightweight result of Inspector.Columns.
type ColumnRef struct {
	Table  string `db:"table_name" json:"table" yaml:"table"`
	Column string `db:"column_name" json:"column" yaml:"column"`
}

// ForeignKey is the constraint-level view of a foreign key. On Postgres a
// composite key is one row with comma-joined Column / ForeignKeyColumn.
type ForeignKey struct {
	Table            string  `db:"table_name" json:"table" yaml:"table"`
	Column           string  `db:"column_name" json:"column" yaml:"column"`
	ForeignKeySchema *string `db:"foreign_key_schema" json:"foreign_key_schema" yaml:"foreign_key_schema"`
	ForeignKeyTable  string  `db:"foreign_key_table" json:"foreign_key_table" yaml:"foreign_key_table"`
	ForeignKeyColumn string  `db:"foreign_key_column" json:"foreign_key_column" yaml:"foreign_key_column"`
	ConstraintName   *string `db:"constraint_name" json:"constraint_name" yaml:"constraint_name"`
	OnUpdate         *string `db:"on_update" json:"on_update" yaml:"on_update"`
	OnDelete         *string `db:"on_delete" json:"on_delete" yaml:"on_delete"`
}

// Referential actions as reported in ForeignKey.OnUpdate / OnDelete.
const (
	ActionRestrict   = "RESTRICT"
	ActionCascade    = "CASCADE"
	ActionSetNull    = "SET NULL"
	ActionSetDefault = "SET DEFAULT"
	ActionNoAction   = "NO ACTION"
)

func ptr[T any](v T) *T { return &v }

// nonEmpty returns nil for "" so empty catalog text reads as absent.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
