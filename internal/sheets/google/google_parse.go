package google

import (
	"fmt"
	"strconv"
	"strings"

	"oba/internal/core"
	ports "oba/internal/sheets"
)

// parseTransactionRows converts a values matrix (as returned by the Sheets
// API) into transaction rows. Rows whose first cell is not a numeric id, such
// as a header, are skipped.
func parseTransactionRows(values [][]any) []ports.TransactionRow {
	out := make([]ports.TransactionRow, 0, len(values))
	for _, raw := range values {
		row := toStrings(raw)
		id, ok := parseID(safeGet(row, 0))
		if !ok {
			continue
		}
		date, _ := core.ParseDateTime(safeGet(row, 1))
		amount, _ := parseAmount(safeGet(row, 3))
		out = append(out, ports.TransactionRow{
			ID:      id,
			Date:    date,
			Name:    safeGet(row, 2),
			Amount:  amount,
			Account: safeGet(row, 4),
			Bucket:  safeGet(row, 5),
		})
	}
	return out
}

func parseFillRows(values [][]any) []ports.FillRow {
	out := make([]ports.FillRow, 0, len(values))
	for _, raw := range values {
		row := toStrings(raw)
		id, ok := parseID(safeGet(row, 0))
		if !ok {
			continue
		}
		date, _ := core.ParseDateTime(safeGet(row, 1))
		amount, _ := parseAmount(safeGet(row, 2))
		out = append(out, ports.FillRow{
			ID:     id,
			Date:   date,
			Amount: amount,
			Bucket: safeGet(row, 3),
		})
	}
	return out
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseAmount reads amounts as sheets render them with USER_ENTERED input:
// "1300.5", "1,300.50", "1.300,50", "-800,50" or "1 300,50".
func parseAmount(s string) (core.Amount, bool) {
	s = normalizeAmount(s)
	if s == "" {
		return core.Amount{}, false
	}
	a, err := core.ParseAmount(s)
	if err != nil {
		return core.Amount{}, false
	}
	return a, true
}

// normalizeAmount drops grouping separators and leaves "." as the only
// decimal separator. When both "," and "." appear the later one is the
// decimal separator. A lone "," is decimal unless exactly three digits follow
// it; a repeated one is always grouping. A lone "." is always decimal since
// that is how amounts are written.
func normalizeAmount(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'':
			return -1
		}
		return r
	}, s)

	lastComma, lastDot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
