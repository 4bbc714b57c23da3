package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAttempt_UnmarshalKnownAndExtraFields(t *testing.T) {
	payload := `{"username":"admin","password":"hunter2","userAgent":"curl/8.0","remember":true,"platform":42}`

	var attempt LoginAttempt
	require.NoError(t, json.Unmarshal([]byte(payload), &attempt))

	require.NotNil(t, attempt.Username)
	assert.Equal(t, "admin", *attempt.Username)
	assert.Equal(t, "hunter2", *attempt.Password)
	assert.Equal(t, "curl/8.0", *attempt.UserAgent)
	assert.Nil(t, attempt.Language)

	// Non-string values for known keys are kept verbatim instead of rejected
	assert.Nil(t, attempt.Platform)
	assert.JSONEq(t, `42`, string(attempt.Extra["platform"]))
	assert.JSONEq(t, `true`, string(attempt.Extra["remember"]))

	platform, ok := attempt.Field(FieldPlatform)
	assert.True(t, ok)
	assert.Equal(t, "42", platform)
}

func TestLoginAttempt_UnmarshalRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`[]`, `"admin"`, `12`, `null`, `{`} {
		t.Run(payload, func(t *testing.T) {
			var attempt LoginAttempt
			assert.Error(t, json.Unmarshal([]byte(payload), &attempt))
		})
	}
}

func TestLoginAttempt_NullFieldIsAbsent(t *testing.T) {
	var attempt LoginAttempt
	require.NoError(t, json.Unmarshal([]byte(`{"username":null}`), &attempt))

	assert.Equal(t, "N/A", attempt.FieldOr(FieldUsername, "N/A"))

	out, err := json.Marshal(attempt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":null}`, string(out))
}

func TestLoginAttempt_ApplyServerFieldsOverridesClient(t *testing.T) {
	var attempt LoginAttempt
	payload := `{"username":"a","client_ip":"6.6.6.6","server_timestamp":1,"capture_id":"spoofed"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &attempt))

	attempt.ApplyServerFields("10.1.2.3", "2026-01-02T03:04:05.000006Z", "id-1", map[string]string{"Host": "decoy"})

	out, err := json.Marshal(attempt)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "10.1.2.3", decoded["client_ip"])
	assert.Equal(t, "2026-01-02T03:04:05.000006Z", decoded["server_timestamp"])
	assert.Equal(t, "id-1", decoded["capture_id"])
	assert.Equal(t, map[string]any{"Host": "decoy"}, decoded["headers"])
	assert.Empty(t, attempt.Extra)
}

func TestLoginAttempt_MarshalOrderAndEscaping(t *testing.T) {
	attempt := LoginAttempt{
		Username:        StringPtr("<script>"),
		Password:        StringPtr("pässwörd"),
		ClientIP:        "1.2.3.4",
		ServerTimestamp: "2026-01-02T03:04:05.000000Z",
		Extra: map[string]json.RawMessage{
			"zeta":  json.RawMessage(`"z"`),
			"alpha": json.RawMessage(`[1,2]`),
		},
	}

	out, err := json.Marshal(attempt)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "pässwörd")
	assert.Less(t, strings.Index(text, `"username"`), strings.Index(text, `"password"`))
	assert.Less(t, strings.Index(text, `"password"`), strings.Index(text, `"client_ip"`))
	assert.Less(t, strings.Index(text, `"server_timestamp"`), strings.Index(text, `"alpha"`))
	assert.Less(t, strings.Index(text, `"alpha"`), strings.Index(text, `"zeta"`))

	var roundTrip LoginAttempt
	require.NoError(t, json.Unmarshal(out, &roundTrip))
	assert.Equal(t, "<script>", *roundTrip.Username)
	assert.Equal(t, "1.2.3.4", roundTrip.ClientIP)
}

func TestFormatServerTimestamp_FixedWidth(t *testing.T) {
	whole := FormatServerTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	fractional := FormatServerTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 1000, time.UTC))

	assert.Equal(t, "2026-01-02T03:04:05.000000Z", whole)
	assert.Equal(t, "2026-01-02T03:04:05.000001Z", fractional)
	assert.Equal(t, len(whole), len(fractional))
	assert.Less(t, whole, fractional)
}
