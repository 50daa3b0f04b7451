package db

import (
	"fmt"
	"strings"
)

// UpdateSet собирает SET-часть частичного UPDATE: меняются только добавленные колонки.
type UpdateSet struct {
	cols []string
	args []any
}

func (s *UpdateSet) Add(col string, v any) {
	s.args = append(s.args, v)
	s.cols = append(s.cols, fmt.Sprintf("%s=$%d", col, len(s.args)))
}

func (s *UpdateSet) Empty() bool { return len(s.cols) == 0 }

// Build возвращает "UPDATE table SET ... WHERE idCol=$n" и аргументы; id идёт последним.
func (s *UpdateSet) Build(table, idCol string, id int64) (string, []any) {
	args := append(append([]any{}, s.args...), id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s=$%d", table, strings.Join(s.cols, ", "), idCol, len(args))
	return q, args
}
