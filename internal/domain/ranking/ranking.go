// Package ranking описывает виды рейтингов WikaTalk и общие правила сравнения
// участников: кто кого опережает, кто допускается в рейтинг и как строится таблица.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

// Type: вид рейтинга
type Type string

const (
	QuizChampions    Type = "quizChampions"
	CoinMasters      Type = "coinMasters"
	SpeedDemons      Type = "speedDemons"
	ConsistencyKings Type = "consistencyKings"
)

// Direction задает, какое значение считается лучшим
type Direction int

const (
	// Descending: больше значит лучше
	Descending Direction = iota
	// Ascending: меньше значит лучше (например, среднее время)
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// Source: хранилище, по которому считается агрегат
type Source string

const (
	SourceProgress Source = "progress"
	SourceAttempts Source = "attempts"
	SourceUsers    Source = "users"
)

// Standing: агрегированное положение одного пользователя в рейтинге
type Standing struct {
	UserID    uint    `json:"userId"`
	Value     float64 `json:"value"`
	Secondary float64 `json:"secondary"` // вторичный ключ для разрешения ничьих
	Samples   int64   `json:"samples"`   // сколько записей вошло в агрегат
}

// Entry: положение пользователя вместе с данными профиля
type Entry struct {
	Standing
	Username   string
	Avatar     string
	LastActive *time.Time
}

// Row: строка таблицы лидеров, отдаваемая клиенту
type Row struct {
	Rank       int        `json:"rank"`
	UserID     uint       `json:"userId"`
	Username   string     `json:"username"`
	Avatar     string     `json:"avatar"`
	Value      float64    `json:"value"`
	LastActive *time.Time `json:"lastActive"`

	CompletedQuizzes *int64   `json:"completedQuizzes,omitempty"`
	Coins            *int64   `json:"coins,omitempty"`
	AverageTime      *float64 `json:"averageTime,omitempty"`
	CompletedCount   *int64   `json:"completedCount,omitempty"`
	SuccessRate      *float64 `json:"successRate,omitempty"`
	CorrectAttempts  *int64   `json:"correctAttempts,omitempty"`
	TotalAttempts    *int64   `json:"totalAttempts,omitempty"`
}

// UserRank: место пользователя и его значение в рейтинге
type UserRank struct {
	Rank  int64   `json:"rank"`
	Value float64 `json:"value"`
}

// Board: вычисленная таблица лидеров
type Board struct {
	Type        Type      `json:"type"`
	Rankings    []Row     `json:"rankings"`
	TotalCount  int64     `json:"totalCount"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// View: описание одного вида рейтинга
type View struct {
	Type      Type
	Source    Source
	Direction Direction
	// MinSamples: минимальное число записей для попадания в рейтинг
	MinSamples int64
	// NonNegative исключает отрицательные значения (баланс монет)
	NonNegative bool
	// TieBreak: при равных значениях выше тот, у кого больше Secondary
	TieBreak bool

	decorate func(r *Row, s Standing)
}

var views = map[Type]View{
	QuizChampions: {
		Type:       QuizChampions,
		Source:     SourceProgress,
		Direction:  Descending,
		MinSamples: 1,
		decorate: func(r *Row, s Standing) {
			r.CompletedQuizzes = int64Ptr(int64(s.Value))
		},
	},
	CoinMasters: {
		Type:        CoinMasters,
		Source:      SourceUsers,
		Direction:   Descending,
		MinSamples:  1,
		NonNegative: true,
		decorate: func(r *Row, s Standing) {
			r.Coins = int64Ptr(int64(s.Value))
		},
	},
	SpeedDemons: {
		Type:       SpeedDemons,
		Source:     SourceProgress,
		Direction:  Ascending,
		MinSamples: 5,
		decorate: func(r *Row, s Standing) {
			avg := s.Value
			r.AverageTime = &avg
			r.CompletedCount = int64Ptr(s.Samples)
		},
	},
	ConsistencyKings: {
		Type:       ConsistencyKings,
		Source:     SourceAttempts,
		Direction:  Descending,
		MinSamples: 10,
		TieBreak:   true,
		decorate: func(r *Row, s Standing) {
			rate := s.Value
			r.SuccessRate = &rate
			r.CorrectAttempts = int64Ptr(int64(s.Secondary))
			r.TotalAttempts = int64Ptr(s.Samples)
		},
	},
}

// Types возвращает все поддерживаемые виды рейтинга в стабильном порядке
func Types() []Type {
	return []Type{QuizChampions, CoinMasters, SpeedDemons, ConsistencyKings}
}

// ParseType проверяет строку из запроса
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := views[t]; !ok {
		return "", fmt.Errorf("%w: unknown ranking type %q", apperrors.ErrInvalidArgument, s)
	}
	return t, nil
}

// ViewOf возвращает описание вида рейтинга
func ViewOf(t Type) (View, error) {
	v, ok := views[t]
	if !ok {
		return View{}, fmt.Errorf("%w: unknown ranking type %q", apperrors.ErrInvalidArgument, t)
	}
	return v, nil
}

// Eligible сообщает, допускается ли пользователь в рейтинг
func (v View) Eligible(s Standing) bool {
	if s.Samples < v.MinSamples {
		return false
	}
	if v.NonNegative && s.Value < 0 {
		return false
	}
	return true
}

// Better сообщает, опережает ли a строго b
func (v View) Better(a, b Standing) bool {
	if a.Value != b.Value {
		if v.Direction == Ascending {
			return a.Value < b.Value
		}
		return a.Value > b.Value
	}
	return v.TieBreak && a.Secondary > b.Secondary
}

// Less задает полный порядок строк таблицы: сначала лучшие, при полном равенстве по UserID
func (v View) Less(a, b Standing) bool {
	if v.Better(a, b) {
		return true
	}
	if v.Better(b, a) {
		return false
	}
	return a.UserID < b.UserID
}

// BuildRows сортирует допущенные записи, проставляет места (равные значения делят место)
// и заполняет поля, специфичные для вида рейтинга.
func (v View) BuildRows(entries []Entry) []Row {
	eligible := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if v.Eligible(e.Standing) {
			eligible = append(eligible, e)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return v.Less(eligible[i].Standing, eligible[j].Standing)
	})

	rows := make([]Row, len(eligible))
	for i, e := range eligible {
		rank := i + 1
		if i > 0 && !v.Better(eligible[i-1].Standing, e.Standing) {
			rank = rows[i-1].Rank
		}
		rows[i] = Row{
			Rank:       rank,
			UserID:     e.UserID,
			Username:   e.Username,
			Avatar:     e.Avatar,
			Value:      e.Value,
			LastActive: e.LastActive,
		}
		if v.decorate != nil {
			v.decorate(&rows[i], e.Standing)
		}
	}
	return rows
}

// SuccessRate считает процент правильных попыток с округлением до десятых
func SuccessRate(correct, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return RoundTenth(float64(correct) * 100 / float64(total))
}

// RoundTenth округляет до одного знака после запятой (half away from zero, как ROUND в Postgres)
func RoundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}

func int64Ptr(v int64) *int64 {
	return &v
}
