package postgres

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/nethub/internal/model"
)

// Columns and operators a predicate may reference. Predicates are only
// built from these constants; user input only ever reaches the bound value.
const (
	colNodeID     = "node_id"
	colActionName = "action_name"
	colEmail      = "email"
	colData       = "data"

	opEq    = "="
	opILike = "ILIKE"
)

// predicate is a single "column op $n" comparison with a bound value.
type predicate struct {
	column string
	op     string
	value  any
}

// whereClause is a conjunction of groups; each group is a disjunction of
// predicates.
type whereClause struct {
	groups [][]predicate
}

// and adds a predicate that must hold on its own.
func (w *whereClause) and(column, op string, value any) {
	w.groups = append(w.groups, []predicate{{column: column, op: op, value: value}})
}

// or adds a group of predicates of which at least one must hold.
func (w *whereClause) or(preds ...predicate) {
	if len(preds) == 0 {
		return
	}
	w.groups = append(w.groups, preds)
}

// build renders the clause starting at placeholder $(argIdx+1), advancing
// argIdx past the last placeholder used. It returns "" when there are no
// predicates.
func (w *whereClause) build(argIdx *int) (string, []any) {
	if len(w.groups) == 0 {
		return "", nil
	}

	var (
		conj []string
		args []any
	)
	for _, g := range w.groups {
		disj := make([]string, len(g))
		for i, p := range g {
			*argIdx++
			disj[i] = fmt.Sprintf("%s %s $%d", p.column, p.op, *argIdx)
			args = append(args, p.value)
		}
		if len(disj) == 1 {
			conj = append(conj, disj[0])
		} else {
			conj = append(conj, "("+strings.Join(disj, " OR ")+")")
		}
	}
	return " WHERE " + strings.Join(conj, " AND "), args
}

// eventFilterClause translates an EventFilter into a whereClause.
func eventFilterClause(f model.EventFilter) *whereClause {
	w := &whereClause{}
	if f.IsZero() {
		return w
	}
	if f.NodeID != 0 {
		w.and(colNodeID, opEq, f.NodeID)
	}
	if f.ActionName != "" {
		w.and(colActionName, opEq, f.ActionName)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		w.or(
			predicate{column: colEmail, op: opILike, value: pattern},
			predicate{column: colActionName, op: opILike, value: pattern},
			predicate{column: colData, op: opILike, value: pattern},
		)
	}
	return w
}

// escapeLike escapes LIKE metacharacters so s matches literally. Postgres
// uses backslash as the default LIKE escape character.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
