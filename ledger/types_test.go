package ledger_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-ledger/ledger"
)

func TestYear_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ledger.Year
		wantErr bool
	}{
		{"string", `"2022"`, ledger.NewYear("2022"), false},
		{"number", `2022`, ledger.NewYear("2022"), false},
		{"null", `null`, ledger.UnspecifiedYear, false},
		{"empty string", `""`, ledger.UnspecifiedYear, false},
		{"fractional number", `2022.5`, ledger.Year{}, true},
		{"object", `{"year":2022}`, ledger.Year{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var y ledger.Year
			err := json.Unmarshal([]byte(tt.input), &y)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, y)
		})
	}
}

func TestYear_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(ledger.NewYear("2023"))
	require.NoError(t, err)
	assert.JSONEq(t, `"2023"`, string(b))

	b, err = json.Marshal(ledger.UnspecifiedYear)
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(b))
}

func TestDate_UnmarshalJSON(t *testing.T) {
	// GIVEN: Request bodies carrying dates
	// WHEN: Decoding them
	// THEN: Only exact YYYY-MM-DD (or empty) is accepted

	var d ledger.Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-15"`), &d))
	assert.True(t, d.Equal(ledger.NewDate(2024, time.January, 15)))

	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	for _, bad := range []string{`"2024-01-15-not-a-date"`, `"2024-01-15T10:00:00Z"`, `"15/01/2024"`} {
		assert.Error(t, json.Unmarshal([]byte(bad), &d), bad)
	}
}

func TestDate_ScanStoredTimestamp(t *testing.T) {
	var d ledger.Date
	require.NoError(t, d.Scan("2024-03-01 00:00:00"))
	assert.True(t, d.Equal(ledger.NewDate(2024, time.March, 1)))
}
