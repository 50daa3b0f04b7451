package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern: шаблон для LOWER(col) LIKE $1, ищущий q как подстроку.
// Спецсимволы LIKE экранируются обратной косой чертой (ESCAPE по умолчанию).
func ContainsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}
