package postgres

import (
	"fmt"
	"strings"

	"github.com/fastygo/tasktracker/repository"
)

const taskColumns = `id, user_id, parent_id, title, description, status, priority, completed_at, created_at, updated_at`

var orderColumns = map[string]string{
	repository.OrderByCreatedAt:   "created_at",
	repository.OrderByCompletedAt: "completed_at",
	repository.OrderByPriority:    "priority",
}

// buildTaskQuery renders a TaskQuery as a SELECT with positional arguments.
// Only whitelisted columns and directions reach the ORDER BY clause. Open tasks
// have no completed_at and stay last in both directions.
func buildTaskQuery(q repository.TaskQuery) (string, []any) {
	q = q.Normalized()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.TopLevelOnly {
		where = append(where, "parent_id IS NULL")
	}
	if q.UserID != nil {
		where = append(where, "user_id = "+arg(*q.UserID))
	}
	if q.ParentID != nil {
		where = append(where, "parent_id = "+arg(*q.ParentID))
	}
	if q.Status != "" {
		where = append(where, "status = "+arg(string(q.Status)))
	}
	if q.PriorityMin != nil {
		where = append(where, "priority >= "+arg(*q.PriorityMin))
	}
	if q.PriorityMax != nil {
		where = append(where, "priority <= "+arg(*q.PriorityMax))
	}
	if q.Title != "" {
		if tsQuery := prefixTSQuery(q.Title); tsQuery != "" {
			where = append(where, "to_tsvector('simple', title) @@ to_tsquery('simple', "+arg(tsQuery)+")")
		} else {
			where = append(where, "FALSE")
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(taskColumns)
	sb.WriteString(" FROM tasks")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s", orderColumns[q.OrderBy], strings.ToUpper(q.OrderDirection))
	if q.OrderBy == repository.OrderByCompletedAt {
		sb.WriteString(" NULLS LAST")
	}
	sb.WriteString(", id ASC")

	return sb.String(), args
}

// prefixTSQuery turns free text into `term:* & term:*`.
func prefixTSQuery(title string) string {
	terms := repository.SearchTerms(title)
	for i, term := range terms {
		terms[i] = term + ":*"
	}
	return strings.Join(terms, " & ")
}
