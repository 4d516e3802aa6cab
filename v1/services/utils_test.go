package services

import (
	"encoding/json"
	"testing"

	"github.com/ddries/radiobot-rbpwh/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateToEpochSeconds(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int64
	}{
		{
			name:  "Millisecond precision is truncated",
			value: "2023-11-14T22:13:20.123Z",
			want:  1700000000,
		},
		{
			name:  "Whole seconds",
			value: "2023-11-14T22:13:20Z",
			want:  1700000000,
		},
		{
			name:  "Absent date",
			value: "",
			want:  0,
		},
		{
			name:  "Unparseable date",
			value: "yesterday",
			want:  0,
		},
		{
			name:  "Pre-epoch date clamps to zero",
			value: "1960-01-01T00:00:00Z",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDateToEpochSeconds(tt.value))
		})
	}
}

func TestExtractMembership(t *testing.T) {
	raw := `{
		"data": {
			"id": "m1",
			"attributes": {
				"email": "e@x.com",
				"full_name": "N",
				"next_charge_date": "2024-01-01T00:00:00Z",
				"pledge_relationship_start": "2023-01-01T00:00:00Z"
			}
		},
		"included": [
			{},
			{
				"id": "u1",
				"attributes": {
					"created": "2022-01-01T00:00:00Z",
					"social_connections": {"discord": {"user_id": "d1"}}
				}
			}
		]
	}`

	var event models.PledgeEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	record := ExtractMembership(&event)

	assert.Equal(t, "m1", record.PledgeID)
	assert.Equal(t, "N", record.FullName)
	assert.Equal(t, "e@x.com", record.Email)
	assert.Equal(t, "u1", record.PatreonUserID)
	require.NotNil(t, record.DiscordUserID)
	assert.Equal(t, "d1", *record.DiscordUserID)
	assert.Equal(t, int64(1704067200), record.NextChargeDate)
	assert.Equal(t, int64(1672531200), record.PurchasedAt)
	assert.Equal(t, int64(1640995200), record.UserCreatedDate)
}

func TestExtractMembership_EmailFallback(t *testing.T) {
	raw := `{
		"data": {"id": "m1", "attributes": {"full_name": "N"}},
		"included": [
			{},
			{"id": "u1", "attributes": {"email": "a@b.com"}}
		]
	}`

	var event models.PledgeEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	record := ExtractMembership(&event)
	assert.Equal(t, "a@b.com", record.Email)
}

func TestExtractMembership_MissingConnectionPath(t *testing.T) {
	raw := `{
		"data": {"id": "m1", "attributes": {"email": "e@x.com"}},
		"included": [
			{},
			{"id": "u1", "attributes": {"created": "2022-01-01T00:00:00Z"}}
		]
	}`

	var event models.PledgeEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	record := ExtractMembership(&event)
	assert.Nil(t, record.DiscordUserID)
}

func TestExtractMembership_NoUserEntity(t *testing.T) {
	raw := `{"data": {"id": "m1", "attributes": {"email": "e@x.com"}}, "included": []}`

	var event models.PledgeEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	record := ExtractMembership(&event)
	assert.Equal(t, "m1", record.PledgeID)
	assert.Equal(t, "", record.PatreonUserID)
	assert.Nil(t, record.DiscordUserID)
	assert.Equal(t, int64(0), record.UserCreatedDate)
}
