package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchBody struct {
	Title   Optional[string] `json:"title"`
	Subject Optional[string] `json:"subject"`
	Done    Optional[bool]   `json:"done"`
}

func TestOptionalPresence(t *testing.T) {
	var body patchBody
	require.NoError(t, json.Unmarshal([]byte(`{"subject": null, "done": true}`), &body))

	assert.False(t, body.Title.Set, "omitted key stays absent")
	assert.True(t, body.Subject.IsNull(), "null key is an explicit clear")
	done, ok := body.Done.Get()
	assert.True(t, ok)
	assert.True(t, done)
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var body patchBody
	assert.Error(t, json.Unmarshal([]byte(`{"done": "yes"}`), &body))
}

func TestOptionalMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Optional[int] `json:"a"`
		B Optional[int] `json:"b"`
	}{A: Some(3), B: Null[int]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(out))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, 12, 31), d)

	d, err = ParseDate("2025-12-31T00:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", d.String())

	_, err = ParseDate("31.12.2025")
	assert.Error(t, err)
}

func TestDateJSONAndScan(t *testing.T) {
	d := NewDate(2025, 3, 4)
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-04"`, string(out))

	var back Date
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, d, back)

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2025, 3, 4, 0, 0, 0, 0, time.FixedZone("MSK", 3*3600))))
	assert.Equal(t, d, scanned)

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", v)
}

func TestUserJSONOmitsPassword(t *testing.T) {
	out, err := json.Marshal(User{ID: 1, Username: "ivan", Password: "secret", DisplayName: "Иван"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
	assert.Contains(t, string(out), `"displayName":"Иван"`)
}
