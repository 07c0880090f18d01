package bookreviews

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/samber/lo"
)

type (
	Resolve[M any]   func(ctx context.Context, db squirrel.BaseRunner, parents []M) error
	Binder[M, N any] func(parents []M, children []N)
)

type Relation[M any] struct {
	Resolve Resolve[M]
}

func HasMany[M, N any](
	child *Schema[N],
	belongTogether func(M, N) bool,
	assign func(*M, []N),
	wherer func(parents []M) QueryMod,
) Relation[M] {
	return createRelation(child, BindBy(belongTogether, assign), wherer)
}

func HasOne[M, N any](
	child *Schema[N],
	belongTogether func(M, N) bool,
	assign func(*M, N),
	wherer func(parents []M) QueryMod,
) Relation[M] {
	return createRelation(child, BindByOne(belongTogether, assign), wherer)
}

func createRelation[M, N any](
	child *Schema[N],
	binder Binder[M, N],
	wherer func(parents []M) QueryMod,
) Relation[M] {
	return Relation[M]{
		Resolve: func(ctx context.Context, db squirrel.BaseRunner, parents []M) error {
			children, err := child.Query().
				ModifyQuery(wherer(parents)).
				Collect(ctx, db)
			if err != nil {
				return err
			}

			binder(parents, children)

			return nil
		},
	}
}

// JoinTable names the pair table backing a many-to-many association and the
// direction it is read in. Both directions of one association share the same
// physical table with the columns swapped.
type JoinTable struct {
	Table     string
	ParentCol string
	ChildCol  string
}

type joinPair struct {
	parent int64
	child  int64
}

// ManyToMany resolves an association through a join table: one indexed lookup
// over the pair set keyed by the parents, one lookup of the referenced
// children, then an in-memory bind.
func ManyToMany[M, N any](
	child *Schema[N],
	join JoinTable,
	parentID func(M) int64,
	childID func(N) int64,
	assign func(*M, []N),
) Relation[M] {
	return Relation[M]{
		Resolve: func(ctx context.Context, db squirrel.BaseRunner, parents []M) error {
			parentIDs := lo.Map(parents, func(parent M, _ int) int64 { return parentID(parent) })

			pairQuery := squirrel.StatementBuilder.RunWith(db).
				Select(join.ParentCol, join.ChildCol).
				From(join.Table).
				Where(squirrel.Eq{join.ParentCol: parentIDs})
			pairs, err := collectRows(ctx, pairQuery, func(pair *joinPair) Ptrs {
				return Ptrs{&pair.parent, &pair.child}
			})
			if err != nil {
				return err
			}

			childIDs := lo.Uniq(lo.Map(pairs, func(pair joinPair, _ int) int64 { return pair.child }))

			var children []N
			if len(childIDs) > 0 {
				children, err = child.Query().
					ModifyQuery(WhereIn("id", childIDs)).
					Collect(ctx, db)
				if err != nil {
					return err
				}
			}

			byID := make(map[int64]N, len(children))
			for _, c := range children {
				byID[childID(c)] = c
			}

			linked := make(map[int64][]int64, len(parents))
			for _, pair := range pairs {
				linked[pair.parent] = append(linked[pair.parent], pair.child)
			}

			for ix := range parents {
				parent := &parents[ix]

				var collection []N
				for _, id := range linked[parentID(*parent)] {
					if c, ok := byID[id]; ok {
						collection = append(collection, c)
					}
				}

				assign(parent, collection)
			}

			return nil
		},
	}
}

func BindBy[M, N any](
	belongTogether func(M, N) bool,
	assign func(*M, []N),
) Binder[M, N] {
	return func(parents []M, children []N) {
		for ix := range parents {
			parent := &parents[ix]
			var collection []N

			for _, child := range children {
				if !belongTogether(*parent, child) {
					continue
				}

				collection = append(collection, child)
			}

			assign(parent, collection)
		}
	}
}

func BindByOne[M, N any](
	belongTogether func(M, N) bool,
	assign func(*M, N),
) Binder[M, N] {
	return func(parents []M, children []N) {
		for ix := range parents {
			parent := &parents[ix]

			for _, child := range children {
				if !belongTogether(*parent, child) {
					continue
				}

				assign(parent, child)
				break
			}
		}
	}
}

func WhereIn[K any](col string, ids []K) QueryMod {
	return func(q Q, table string) Q {
		return q.Where(squirrel.Eq{TableCol(table, col): ids})
	}
}

func WhereIDs[M any, K any](col string, getID func(m M) K) func(parents []M) QueryMod {
	return func(parents []M) QueryMod {
		return WhereIn(col, lo.Map(parents, func(parent M, _ int) K { return getID(parent) }))
	}
}
