package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/wikatalk/wikatalk-api/internal/domain/ranking"
)

// exportColumn: колонка выгрузки: заголовок и значение из строки таблицы
type exportColumn struct {
	title string
	value func(r ranking.Row) interface{}
}

func derefInt(p *int64) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func derefFloat(p *float64) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func exportColumns(t ranking.Type) []exportColumn {
	cols := []exportColumn{
		{"Rank", func(r ranking.Row) interface{} { return r.Rank }},
		{"User ID", func(r ranking.Row) interface{} { return int64(r.UserID) }},
		{"Username", func(r ranking.Row) interface{} { return sanitizeForExcel(r.Username) }},
	}

	switch t {
	case ranking.QuizChampions:
		cols = append(cols, exportColumn{"Completed Quizzes", func(r ranking.Row) interface{} { return derefInt(r.CompletedQuizzes) }})
	case ranking.CoinMasters:
		cols = append(cols, exportColumn{"Coins", func(r ranking.Row) interface{} { return derefInt(r.Coins) }})
	case ranking.SpeedDemons:
		cols = append(cols,
			exportColumn{"Average Time (s)", func(r ranking.Row) interface{} { return derefFloat(r.AverageTime) }},
			exportColumn{"Completed", func(r ranking.Row) interface{} { return derefInt(r.CompletedCount) }},
		)
	case ranking.ConsistencyKings:
		cols = append(cols,
			exportColumn{"Success Rate (%)", func(r ranking.Row) interface{} { return derefFloat(r.SuccessRate) }},
			exportColumn{"Correct Attempts", func(r ranking.Row) interface{} { return derefInt(r.CorrectAttempts) }},
			exportColumn{"Total Attempts", func(r ranking.Row) interface{} { return derefInt(r.TotalAttempts) }},
		)
	}

	return append(cols, exportColumn{"Last Active", func(r ranking.Row) interface{} {
		if r.LastActive == nil {
			return ""
		}
		return r.LastActive.UTC().Format(time.RFC3339)
	}})
}

// ExportRankings выгружает закешированную таблицу в CSV или Excel
// GET /api/rankings/export?type=...&format=csv|xlsx
func (h *RankingHandler) ExportRankings(c *gin.Context) {
	t, err := ranking.ParseType(c.Query("type"))
	if err != nil {
		handleError(c, "RankingHandler", err, rankingsFailedMessage)
		return
	}

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		respondError(c, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	board, err := h.rankings.Leaderboard(c.Request.Context(), t)
	if err != nil {
		handleError(c, "RankingHandler", err, rankingsFailedMessage)
		return
	}

	filename := fmt.Sprintf("rankings_%s_%s", t, board.LastUpdated.UTC().Format("2006-01-02"))
	cols := exportColumns(t)

	if format == "xlsx" {
		h.exportXLSX(c, board, cols, filename)
		return
	}
	h.exportCSV(c, board, cols, filename)
}

// exportCSV пишет CSV с BOM, чтобы Excel корректно открыл UTF-8
func (h *RankingHandler) exportCSV(c *gin.Context, board ranking.Board, cols []exportColumn, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		log.Printf("[RankingHandler] Ошибка записи BOM в response: %v", err)
		return
	}

	writer := csv.NewWriter(c.Writer)

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.title
	}
	if err := writer.Write(header); err != nil {
		log.Printf("[RankingHandler] Ошибка записи заголовков CSV: %v", err)
		return
	}

	for i, row := range board.Rankings {
		record := make([]string, len(cols))
		for j, col := range cols {
			record[j] = formatCell(col.value(row))
		}
		if err := writer.Write(record); err != nil {
			log.Printf("[RankingHandler] Ошибка записи строки CSV %d: %v", i+1, err)
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("[RankingHandler] Ошибка при Flush CSV: %v", err)
	}
}

// exportXLSX пишет Excel через StreamWriter
func (h *RankingHandler) exportXLSX(c *gin.Context, board ranking.Board, cols []exportColumn, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Rankings"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RankingHandler] Ошибка создания StreamWriter: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to create Excel file")
		return
	}

	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col.title
	}
	if err := sw.SetRow("A1", header); err != nil {
		log.Printf("[RankingHandler] Ошибка записи заголовков: %v", err)
	}

	for i, row := range board.Rankings {
		values := make([]interface{}, len(cols))
		for j, col := range cols {
			values[j] = col.value(row)
		}
		cell := fmt.Sprintf("A%d", i+2) // в строке 1 заголовки
		if err := sw.SetRow(cell, values); err != nil {
			log.Printf("[RankingHandler] Ошибка записи строки %s: %v", cell, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RankingHandler] Ошибка при Flush: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to create Excel file")
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RankingHandler] Ошибка записи Excel в response: %v", err)
	}
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
