package repository

import (
	"fmt"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// sessionWindowConditions renders the window as predicates on the sessions
// alias, appending positional arguments to args.
func sessionWindowConditions(w models.SessionWindow, alias string, args []interface{}) ([]string, []interface{}) {
	var conds []string
	if w.ClassID != "" {
		args = append(args, w.ClassID)
		conds = append(conds, fmt.Sprintf("%s.class_id = $%d", alias, len(args)))
	}
	if w.From != nil {
		args = append(args, *w.From)
		conds = append(conds, fmt.Sprintf("%s.created_at >= $%d", alias, len(args)))
	}
	if w.To != nil {
		args = append(args, *w.To)
		conds = append(conds, fmt.Sprintf("%s.created_at < $%d", alias, len(args)))
	}
	return conds, args
}
