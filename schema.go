package bookreviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Masterminds/squirrel"
)

var (
	// ErrNoSuchRelation is returned when Resolve names a relation the schema does not define.
	ErrNoSuchRelation = errors.New("relation does not exist")
	// ErrTooManyResults is returned when CollectOne matched more than one row.
	ErrTooManyResults = errors.New("too many results for CollectOne")
)

type (
	Q        = squirrel.SelectBuilder
	QueryMod func(q Q, table string) Q

	Ptrs           []any
	RowScan[T any] func(*T) Ptrs
)

func Col(names ...string) QueryMod {
	return func(q Q, table string) Q {
		for _, name := range names {
			q = q.Column(TableCol(table, name))
		}
		return q
	}
}

func TableCol(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

func applyMods(q Q, table string, mods []QueryMod) Q {
	for _, mod := range mods {
		q = mod(q, table)
	}

	return q
}

// Schema describes how one entity maps onto its table: the full column set
// with scan destinations, plus the named relations that can be resolved onto
// collected rows.
type Schema[T any] struct {
	Table     string
	Columns   []Column[T]
	Relations map[string]Relation[T]
}

type Column[T any] struct {
	Name string
	Ptr  func(t *T) any
}

func NewSchema[T any](table string) *Schema[T] {
	return &Schema[T]{
		Table:     table,
		Relations: make(map[string]Relation[T]),
	}
}

func (schema *Schema[T]) AddColumn(name string, ptr func(t *T) any) *Schema[T] {
	schema.Columns = append(schema.Columns, Column[T]{name, ptr})

	return schema
}

func (schema *Schema[T]) AddRelation(name string, relation Relation[T]) *Schema[T] {
	schema.Relations[name] = relation

	return schema
}

func (schema *Schema[T]) Query() SchemaQuery[T] {
	return SchemaQuery[T]{schema: schema}
}

func (schema *Schema[T]) scan() RowScan[T] {
	return func(t *T) Ptrs {
		ptrs := make(Ptrs, 0, len(schema.Columns))
		for _, column := range schema.Columns {
			ptrs = append(ptrs, column.Ptr(t))
		}
		return ptrs
	}
}

type SchemaQuery[T any] struct {
	schema *Schema[T]

	resolves  []string
	queryMods []QueryMod

	errors []error
}

func (query SchemaQuery[T]) ModifyQuery(mod QueryMod) SchemaQuery[T] {
	query.queryMods = append(query.queryMods, mod)

	return query
}

// Resolve marks named relations to be batch-loaded and bound onto the
// collected rows. Unknown names surface through Err and the finishers.
func (query SchemaQuery[T]) Resolve(relations ...string) SchemaQuery[T] {
	for _, name := range relations {
		if _, ok := query.schema.Relations[name]; !ok {
			query.errors = append(query.errors, fmt.Errorf("%w: %s", ErrNoSuchRelation, name))
			continue
		}

		query.resolves = append(query.resolves, name)
	}

	return query
}

// =================
// Finishers
// =================

func (query SchemaQuery[T]) Err() error {
	return errors.Join(query.errors...)
}

func (query SchemaQuery[T]) Collect(ctx context.Context, db squirrel.BaseRunner) ([]T, error) {
	if err := query.Err(); err != nil {
		return nil, err
	}

	parents, err := query.collectBase(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := query.resolveRelations(ctx, db, parents); err != nil {
		return nil, err
	}

	return parents, nil
}

func (query SchemaQuery[T]) CollectOne(ctx context.Context, db squirrel.BaseRunner) (*T, error) {
	if err := query.Err(); err != nil {
		return nil, err
	}

	parents, err := query.collectBase(ctx, db)
	if err != nil {
		return nil, err
	}

	if len(parents) == 0 {
		return nil, ErrNotFound
	} else if len(parents) > 1 {
		return nil, ErrTooManyResults
	}

	if err := query.resolveRelations(ctx, db, parents); err != nil {
		return nil, err
	}

	return &parents[0], nil
}

func (query SchemaQuery[T]) collectBase(ctx context.Context, db squirrel.BaseRunner) ([]T, error) {
	q := squirrel.StatementBuilder.RunWith(db).Select().From(query.schema.Table)

	for _, column := range query.schema.Columns {
		q = q.Column(TableCol(query.schema.Table, column.Name))
	}

	q = applyMods(q, query.schema.Table, query.queryMods)

	return collectRows(ctx, q, query.schema.scan())
}

func (query SchemaQuery[T]) resolveRelations(
	ctx context.Context,
	db squirrel.BaseRunner,
	parents []T,
) error {
	// Remove duplicates
	slices.Sort(query.resolves)
	query.resolves = slices.Compact(query.resolves)

	for _, name := range query.resolves {
		if err := query.schema.Relations[name].Resolve(ctx, db, parents); err != nil {
			return err
		}
	}

	return nil
}

func collectRows[T any](ctx context.Context, q Q, scan RowScan[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Default().Error("collectRows: failed to close rows", "error", err.Error())
		}
	}()

	var collection []T
	for rows.Next() {
		var t T
		if err := rows.Scan(scan(&t)...); err != nil {
			return nil, err
		}
		collection = append(collection, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collection, nil
}
