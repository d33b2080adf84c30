package record_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/schema"
)

func Test_EncodeDecode_RoundTrips_UUIDIdentifiedRecord(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[0]
	s.Fields = map[string]schema.FieldDef{
		"severity": {Type: schema.FieldEnum, EnumValues: []string{"low", "high"}},
	}
	s.FieldOrder = []string{"severity"}

	num := uint64(7)
	priority := 2
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	r := &record.Record{
		ID:            "018f5f25-7e7d-7f0a-8c5c-123456789abc",
		TypeName:      "issue",
		DisplayNumber: &num,
		Title:         "Fix the thing",
		Body:          "Some details.\n",
		Status:        "open",
		Priority:      &priority,
		CreatedAt:     created,
		UpdatedAt:     created,
		Fields:        map[string]any{"severity": "high"},
		ExtraFields:   map[string]any{},
	}

	data, err := record.Encode(s, r)
	require.NoError(t, err)

	got, err := record.Decode(s, r.ID, data)
	require.NoError(t, err)

	assert.Equal(t, r.Title, got.Title)
	assert.Equal(t, r.Status, got.Status)
	assert.Equal(t, *r.Priority, *got.Priority)
	assert.Equal(t, *r.DisplayNumber, *got.DisplayNumber)
	assert.Equal(t, r.CreatedAt.UTC(), got.CreatedAt)
	assert.True(t, cmp.Equal(r.Fields, got.Fields))
	assert.Contains(t, string(data), "# Fix the thing")
}

func Test_EncodeDecode_RoundTrips_SlugIdentifiedRecord(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[1]
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	r := &record.Record{
		ID:        "my-doc",
		TypeName:  "doc",
		Title:     "My Doc",
		Body:      "content body\n",
		CreatedAt: created,
		UpdatedAt: created,
		Fields:    map[string]any{},
	}

	data, err := record.Encode(s, r)
	require.NoError(t, err)

	got, err := record.Decode(s, r.ID, data)
	require.NoError(t, err)

	assert.Equal(t, "My Doc", got.Title)
	assert.Equal(t, "content body\n", got.Body)
}

func Test_Decode_PreservesUnknownKeys_AsExtraFields(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[0]

	data := []byte("---\n" +
		"createdAt: 2024-03-01T12:00:00Z\n" +
		"updatedAt: 2024-03-01T12:00:00Z\n" +
		"legacyField: kept\n" +
		"---\n" +
		"# Title\n")

	got, err := record.Decode(s, "id1", data)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.ExtraFields["legacyField"])

	reEncoded, err := record.Encode(s, got)
	require.NoError(t, err)
	assert.Contains(t, string(reEncoded), "legacyField: kept")
}

func Test_Decode_ReturnsFrontmatterMalformed_When_ParseFails(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[0]

	_, err := record.Decode(s, "id1", []byte("---\nnot: [valid\n---\n# Title\n"))
	require.Error(t, err)
}

func Test_Record_Clone_IsIndependent(t *testing.T) {
	t.Parallel()

	num := uint64(3)
	r := &record.Record{
		ID:            "a",
		DisplayNumber: &num,
		Fields:        map[string]any{"tags": []string{"x", "y"}},
	}

	clone := r.Clone()
	*clone.DisplayNumber = 9
	clone.Fields["tags"].([]string)[0] = "z"

	assert.Equal(t, uint64(3), *r.DisplayNumber)
	assert.Equal(t, "x", r.Fields["tags"].([]string)[0])
}
