package ranking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wikatalk/wikatalk-api/internal/pkg/errors"
)

func TestParseType(t *testing.T) {
	for _, typ := range Types() {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := ParseType("topTalkers")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument), "Неизвестный тип должен давать ErrInvalidArgument")

	_, err = ParseType("")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestViewOf_Directions(t *testing.T) {
	tests := []struct {
		typ        Type
		direction  Direction
		minSamples int64
		source     Source
	}{
		{QuizChampions, Descending, 1, SourceProgress},
		{CoinMasters, Descending, 1, SourceUsers},
		{SpeedDemons, Ascending, 5, SourceProgress},
		{ConsistencyKings, Descending, 10, SourceAttempts},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			v, err := ViewOf(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.direction, v.Direction)
			assert.Equal(t, tt.minSamples, v.MinSamples)
			assert.Equal(t, tt.source, v.Source)
		})
	}
}

func TestView_Better(t *testing.T) {
	speed, _ := ViewOf(SpeedDemons)
	champions, _ := ViewOf(QuizChampions)
	consistency, _ := ViewOf(ConsistencyKings)

	fast := Standing{UserID: 1, Value: 12.5, Samples: 6}
	slow := Standing{UserID: 2, Value: 40, Samples: 9}
	assert.True(t, speed.Better(fast, slow), "Меньшее среднее время лучше")
	assert.False(t, speed.Better(slow, fast))

	five := Standing{UserID: 1, Value: 5, Samples: 5}
	two := Standing{UserID: 2, Value: 2, Samples: 2}
	assert.True(t, champions.Better(five, two))

	tiedA := Standing{UserID: 1, Value: 3, Samples: 3}
	tiedB := Standing{UserID: 2, Value: 3, Samples: 3}
	assert.False(t, champions.Better(tiedA, tiedB), "Без тай-брейка равные значения не опережают друг друга")
	assert.False(t, champions.Better(tiedB, tiedA))

	low := Standing{UserID: 1, Value: 70, Secondary: 7, Samples: 10}
	high := Standing{UserID: 2, Value: 70, Secondary: 14, Samples: 20}
	assert.True(t, consistency.Better(high, low), "При равном проценте выше тот, у кого больше правильных")
	assert.False(t, consistency.Better(low, high))
}

func TestView_Eligible(t *testing.T) {
	speed, _ := ViewOf(SpeedDemons)
	coins, _ := ViewOf(CoinMasters)
	consistency, _ := ViewOf(ConsistencyKings)

	assert.False(t, speed.Eligible(Standing{Value: 10, Samples: 4}), "Меньше 5 завершенных попыток")
	assert.True(t, speed.Eligible(Standing{Value: 10, Samples: 5}))

	assert.True(t, coins.Eligible(Standing{Value: 0, Samples: 1}))
	assert.False(t, coins.Eligible(Standing{Value: -1, Samples: 1}))

	assert.False(t, consistency.Eligible(Standing{Value: 100, Samples: 9}))
	assert.True(t, consistency.Eligible(Standing{Value: 100, Samples: 10}))
}

func TestView_BuildRows_QuizChampionsScenario(t *testing.T) {
	// Пользователь 1: три записи прогресса, две из них завершены
	v, _ := ViewOf(QuizChampions)
	entries := []Entry{
		{Standing: Standing{UserID: 3, Value: 1, Samples: 1}, Username: "bea"},
		{Standing: Standing{UserID: 1, Value: 2, Samples: 2}, Username: "ana"},
		{Standing: Standing{UserID: 2, Value: 5, Samples: 5}, Username: "carlo"},
	}

	rows := v.BuildRows(entries)

	require.Len(t, rows, 3)
	assert.Equal(t, []float64{5, 2, 1}, []float64{rows[0].Value, rows[1].Value, rows[2].Value})
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].Rank, rows[1].Rank, rows[2].Rank})
	assert.Equal(t, uint(1), rows[1].UserID)
	require.NotNil(t, rows[1].CompletedQuizzes)
	assert.Equal(t, int64(2), *rows[1].CompletedQuizzes)
	assert.Nil(t, rows[1].Coins, "Поля других рейтингов не заполняются")
}

func TestView_BuildRows_SpeedDemonsAscendingAndFiltered(t *testing.T) {
	v, _ := ViewOf(SpeedDemons)
	entries := []Entry{
		{Standing: Standing{UserID: 1, Value: 30, Samples: 5}},
		{Standing: Standing{UserID: 2, Value: 10, Samples: 7}},
		{Standing: Standing{UserID: 3, Value: 5, Samples: 4}}, // недостаточно попыток
		{Standing: Standing{UserID: 4, Value: 30, Samples: 6}},
	}

	rows := v.BuildRows(entries)

	require.Len(t, rows, 3)
	assert.Equal(t, uint(2), rows[0].UserID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, 2, rows[2].Rank, "Равные значения делят место")
	assert.Equal(t, uint(1), rows[1].UserID, "При полном равенстве порядок по UserID")
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].Value, rows[i].Value, "Speed Demons сортируется по возрастанию")
	}
	require.NotNil(t, rows[0].CompletedCount)
	assert.Equal(t, int64(7), *rows[0].CompletedCount)
}

func TestView_BuildRows_ConsistencyKingsTieBreak(t *testing.T) {
	v, _ := ViewOf(ConsistencyKings)
	entries := []Entry{
		{Standing: Standing{UserID: 1, Value: SuccessRate(7, 10), Secondary: 7, Samples: 10}},
		{Standing: Standing{UserID: 2, Value: SuccessRate(14, 20), Secondary: 14, Samples: 20}},
	}

	rows := v.BuildRows(entries)

	require.Len(t, rows, 2)
	assert.Equal(t, 70.0, rows[0].Value)
	assert.Equal(t, 70.0, rows[1].Value)
	assert.Equal(t, uint(2), rows[0].UserID, "14/20 опережает 7/10 за счет тай-брейка")
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[1].Rank)
	require.NotNil(t, rows[0].TotalAttempts)
	assert.Equal(t, int64(20), *rows[0].TotalAttempts)
	assert.Equal(t, int64(14), *rows[0].CorrectAttempts)
}

func TestView_RankMatchesBetterCount(t *testing.T) {
	// Место в таблице всегда равно 1 + число строго лучших участников
	for _, typ := range Types() {
		v, _ := ViewOf(typ)
		entries := []Entry{
			{Standing: Standing{UserID: 1, Value: 50, Secondary: 5, Samples: 12}},
			{Standing: Standing{UserID: 2, Value: 50, Secondary: 9, Samples: 12}},
			{Standing: Standing{UserID: 3, Value: 20, Secondary: 2, Samples: 12}},
			{Standing: Standing{UserID: 4, Value: 80, Secondary: 8, Samples: 12}},
			{Standing: Standing{UserID: 5, Value: 50, Secondary: 5, Samples: 12}},
		}

		rows := v.BuildRows(entries)
		for _, row := range rows {
			var me Standing
			for _, e := range entries {
				if e.UserID == row.UserID {
					me = e.Standing
				}
			}
			better := 0
			for _, e := range entries {
				if e.UserID != me.UserID && v.Better(e.Standing, me) {
					better++
				}
			}
			assert.Equal(t, better+1, row.Rank, "type=%s user=%d", typ, row.UserID)
		}
	}
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 70.0, SuccessRate(7, 10))
	assert.Equal(t, 66.7, SuccessRate(2, 3))
	assert.Equal(t, 33.3, SuccessRate(1, 3))
	assert.Equal(t, 0.0, SuccessRate(0, 0))
}
