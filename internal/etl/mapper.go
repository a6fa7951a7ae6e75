package etl

import (
	"time"
	"unicode"
)

// isoTimestamp matches the legacy serializer's output: UTC, millisecond
// precision, trailing Z.
const isoTimestamp = "2006-01-02T15:04:05.000Z"

// MapRow translates one legacy row into the destination insert shape.
// Keys are converted from camelCase to snake_case, timestamps are rendered
// as ISO-8601 strings, and everything else passes through untouched. The
// mapper does not validate: a missing required field surfaces as an insert
// error downstream.
func MapRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for key, value := range row {
		out[ToSnake(key)] = mapValue(value)
	}
	return out
}

func mapValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(isoTimestamp)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(isoTimestamp)
	default:
		return value
	}
}

// ToSnake converts a camelCase identifier to snake_case. Runs of upper-case
// letters are treated as a single word, so "txURL" becomes "tx_url" and
// "userID" becomes "user_id".
func ToSnake(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes)+4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				out = append(out, '_')
			}
			out = append(out, unicode.ToLower(r))
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
