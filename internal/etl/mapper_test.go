package etl

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestToSnake(t *testing.T) {
	cases := map[string]string{
		"id":               "id",
		"userId":           "user_id",
		"projectName":      "project_name",
		"projectUrl":       "project_url",
		"createdAt":        "created_at",
		"updatedAt":        "updated_at",
		"transactionHash":  "transaction_hash",
		"overallScore":     "overall_score",
		"analysisData":     "analysis_data",
		"notificationsEnabled": "notifications_enabled",
		"userID":           "user_id",
		"txURL":            "tx_url",
		"amountWei":        "amount_wei",
	}

	for in, want := range cases {
		assert.Equal(t, want, ToSnake(in), "ToSnake(%q)", in)
	}
}

func TestMapRowTimestamps(t *testing.T) {
	created := time.Date(2024, 3, 15, 9, 30, 45, 123_000_000, time.UTC)
	updated := created.Add(2 * time.Hour)

	row := map[string]any{
		"id":        "abc",
		"createdAt": created,
		"updatedAt": updated,
	}

	out := MapRow(row)

	assert.Equal(t, "2024-03-15T09:30:45.123Z", out["created_at"])
	assert.Equal(t, "2024-03-15T11:30:45.123Z", out["updated_at"])
}

func TestMapRowNonUTCTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	row := map[string]any{
		"completedAt": time.Date(2024, 6, 1, 14, 0, 0, 0, loc),
	}

	out := MapRow(row)

	assert.Equal(t, "2024-06-01T12:00:00.000Z", out["completed_at"])
}

func TestMapRowNilPointerTimestamp(t *testing.T) {
	var completed *time.Time
	row := map[string]any{
		"completedAt": completed,
	}

	out := MapRow(row)

	assert.Nil(t, out["completed_at"])
}

func TestMapRowPassesThroughPayloads(t *testing.T) {
	payload := map[string]any{"title": "ok", "score": 87}
	row := map[string]any{
		"analysisData": payload,
		"errorMessage": nil,
	}

	out := MapRow(row)

	assert.Equal(t, payload, out["analysis_data"])
	assert.Contains(t, out, "error_message")
	assert.Nil(t, out["error_message"])
}

// sampleRows covers the shape of every migrated entity, so the coverage
// property below exercises each key that actually crosses the mapper.
func sampleRows() []map[string]any {
	now := time.Now()
	return []map[string]any{
		{"id": "u1", "email": "a@b.c", "tier": "free", "createdAt": now, "updatedAt": now},
		{"id": "t1", "userId": "u1", "toolName": "keyword", "projectName": "p", "createdAt": now},
		{"id": "m1", "userId": "u1", "projectUrl": "https://x", "analysisData": map[string]any{}, "overallScore": 90, "status": "completed", "createdAt": now, "updatedAt": now},
		{"id": "i1", "userId": "u1", "indexerName": "main", "status": "active", "createdAt": now},
		{"id": "j1", "indexerId": "i1", "jobType": "scan", "startedAt": now, "completedAt": nil},
		{"id": "c1", "indexerId": "i1", "configKey": "rpc", "configValue": "https://x"},
		{"id": "b1", "blockNumber": int64(19000000), "blockHash": "0xabc", "minedAt": now},
		{"id": "tx1", "blockId": "b1", "transactionHash": "0xdef", "fromAddress": "0x1", "toAddress": "0x2"},
		{"id": "e1", "transactionId": "tx1", "eventName": "Transfer", "eventData": map[string]any{}},
		{"id": "p1", "userId": "u1", "toolType": "metadata", "transactionHash": "0x9", "amountWei": "1000", "status": "confirmed"},
		{"id": "s1", "userId": "u1", "notificationsEnabled": true, "emailReports": false, "defaultProjectName": nil},
		{"id": "h1", "userId": "u1", "toolType": "keyword", "projectName": "p", "score": 75, "createdAt": now},
		{"id": "sum1", "userId": "u1", "projectName": "p", "toolsRun": 4, "averageScore": 81.5, "lastRunAt": now},
	}
}

func TestMapRowSnakeCaseCoverage(t *testing.T) {
	for _, row := range sampleRows() {
		out := MapRow(row)

		assert.Len(t, out, len(row), "no keys dropped for row %v", row["id"])
		for key := range row {
			assert.Contains(t, out, ToSnake(key), "missing mapped key for %q", key)
		}
	}
}

func TestMapRowProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("key count is preserved", prop.ForAll(
		func(keys []string) bool {
			row := make(map[string]any, len(keys))
			for _, k := range keys {
				row[k] = k
			}
			return len(MapRow(row)) <= len(row)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("mapped keys contain no upper-case runes", prop.ForAll(
		func(key string) bool {
			for _, r := range ToSnake(key) {
				if r >= 'A' && r <= 'Z' {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
	))

	properties.Property("timestamps render as UTC ISO strings", prop.ForAll(
		func(sec int64) bool {
			ts := time.Unix(sec, 0).UTC()
			out := MapRow(map[string]any{"createdAt": ts})
			s, ok := out["created_at"].(string)
			if !ok {
				return false
			}
			parsed, err := time.Parse(isoTimestamp, s)
			return err == nil && parsed.Equal(ts)
		},
		gen.Int64Range(0, 4102444800),
	))

	properties.TestingRun(t)
}
