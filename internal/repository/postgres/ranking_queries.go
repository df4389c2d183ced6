package postgres

import (
	"fmt"
	"strings"

	"github.com/wikatalk/wikatalk-api/internal/domain/ranking"
	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

// aggregation: SQL-форма вида рейтинга: источник, фильтр, группировка и формулы значений.
// Каждая колонка результата одинакова для всех видов: user_id, value, secondary, samples.
type aggregation struct {
	from      string
	where     string
	groupBy   string
	userID    string
	value     string
	secondary string
	samples   string
}

var aggregations = map[ranking.Type]aggregation{
	// Количество завершенных викторин
	ranking.QuizChampions: {
		from:      "user_progress p",
		where:     "p.completed = TRUE",
		groupBy:   "p.user_id",
		userID:    "p.user_id",
		value:     "COUNT(*)::float8",
		secondary: "0::float8",
		samples:   "COUNT(*)",
	},
	// Баланс монет, строка на пользователя
	ranking.CoinMasters: {
		from:      "users u",
		where:     "u.coins >= 0",
		userID:    "u.id",
		value:     "u.coins::float8",
		secondary: "0::float8",
		samples:   "1::bigint",
	},
	// Среднее время по завершенным викторинам, чем меньше, тем лучше
	ranking.SpeedDemons: {
		from:      "user_progress p",
		where:     "p.completed = TRUE AND p.total_time_spent > 0",
		groupBy:   "p.user_id",
		userID:    "p.user_id",
		value:     "ROUND(AVG(p.total_time_spent)::numeric, 1)::float8",
		secondary: "0::float8",
		samples:   "COUNT(*)",
	},
	// Процент правильных попыток по всем попыткам, тай-брейк по числу правильных
	ranking.ConsistencyKings: {
		from:      "quiz_attempts a",
		groupBy:   "a.user_id",
		userID:    "a.user_id",
		value:     "ROUND((COUNT(*) FILTER (WHERE a.is_correct))::numeric * 100 / COUNT(*), 1)::float8",
		secondary: "(COUNT(*) FILTER (WHERE a.is_correct))::float8",
		samples:   "COUNT(*)",
	},
}

func aggregationFor(view ranking.View) (aggregation, error) {
	agg, ok := aggregations[view.Type]
	if !ok {
		return aggregation{}, fmt.Errorf("%w: no aggregation for ranking type %q", apperrors.ErrInvalidArgument, view.Type)
	}
	return agg, nil
}

func (a aggregation) sql() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s AS user_id, %s AS value, %s AS secondary, %s AS samples FROM %s",
		a.userID, a.value, a.secondary, a.samples, a.from)
	if a.where != "" {
		b.WriteString(" WHERE " + a.where)
	}
	if a.groupBy != "" {
		b.WriteString(" GROUP BY " + a.groupBy)
	}
	return b.String()
}

// eligibleCTE строит WITH-часть: агрегат + отбор допущенных участников с профилем.
// Единственный параметр: минимальное число записей.
func eligibleCTE(view ranking.View, agg aggregation) string {
	cond := "s.samples >= ?"
	if view.NonNegative {
		cond += " AND s.value >= 0"
	}
	return "WITH standings AS (" + agg.sql() + "), " +
		"eligible AS (SELECT s.user_id, s.value, s.secondary, s.samples, u.username, u.avatar, u.last_login_at " +
		"FROM standings s JOIN users u ON u.id = s.user_id WHERE " + cond + ")"
}

func orderClause(view ranking.View) string {
	dir := "DESC"
	if view.Direction == ranking.Ascending {
		dir = "ASC"
	}
	order := "value " + dir
	if view.TieBreak {
		order += ", secondary DESC"
	}
	return order + ", user_id ASC"
}

// topEntriesQuery: параметры: minSamples, limit
func topEntriesQuery(view ranking.View) (string, error) {
	agg, err := aggregationFor(view)
	if err != nil {
		return "", err
	}
	return eligibleCTE(view, agg) + " SELECT * FROM eligible ORDER BY " + orderClause(view) + " LIMIT ?", nil
}

// countEligibleQuery: параметры: minSamples
func countEligibleQuery(view ranking.View) (string, error) {
	agg, err := aggregationFor(view)
	if err != nil {
		return "", err
	}
	return eligibleCTE(view, agg) + " SELECT COUNT(*) FROM eligible", nil
}

// userStandingQuery: параметры: userID. Допуск не проверяется, это делает сервис.
func userStandingQuery(view ranking.View) (string, error) {
	agg, err := aggregationFor(view)
	if err != nil {
		return "", err
	}
	return "WITH standings AS (" + agg.sql() + ") " +
		"SELECT s.user_id, s.value, s.secondary, s.samples FROM standings s " +
		"JOIN users u ON u.id = s.user_id WHERE s.user_id = ?", nil
}

// countBetterQuery возвращает запрос и аргументы для подсчета строго лучших участников
func countBetterQuery(view ranking.View, me ranking.Standing) (string, []interface{}, error) {
	agg, err := aggregationFor(view)
	if err != nil {
		return "", nil, err
	}

	cmp := ">"
	if view.Direction == ranking.Ascending {
		cmp = "<"
	}

	args := []interface{}{view.MinSamples, me.UserID, me.Value}
	better := "value " + cmp + " ?"
	if view.TieBreak {
		better = "(" + better + " OR (value = ? AND secondary > ?))"
		args = append(args, me.Value, me.Secondary)
	}

	query := eligibleCTE(view, agg) + " SELECT COUNT(*) FROM eligible WHERE user_id <> ? AND " + better
	return query, args, nil
}
