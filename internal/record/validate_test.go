package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/schema"
)

func issueSchemaWithFields() *schema.TypeSchema {
	s := schema.Defaults()[0]
	s.Fields = map[string]schema.FieldDef{
		"severity": {Type: schema.FieldEnum, EnumValues: []string{"low", "high"}},
		"owner":    {Type: schema.FieldString, Required: true},
		"tags":     {Type: schema.FieldStringList},
		"estimate": {Type: schema.FieldNumber, Default: float64(1)},
	}
	s.FieldOrder = []string{"severity", "owner", "tags", "estimate"}

	return s
}

func Test_CoerceFields_AppliesDefault_When_FieldMissing(t *testing.T) {
	t.Parallel()

	s := issueSchemaWithFields()

	out, err := record.CoerceFields(s, map[string]any{"owner": "alice"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["estimate"])
	assert.NotContains(t, out, "severity")
}

func Test_CoerceFields_RejectsMissingRequiredField(t *testing.T) {
	t.Parallel()

	s := issueSchemaWithFields()

	_, err := record.CoerceFields(s, map[string]any{})
	require.Error(t, err)
	assert.True(t, coreerr.IsValidation(err))
}

func Test_CoerceFields_RejectsEnumValueNotDeclared(t *testing.T) {
	t.Parallel()

	s := issueSchemaWithFields()

	_, err := record.CoerceFields(s, map[string]any{"owner": "alice", "severity": "medium"})
	require.Error(t, err)
	assert.True(t, coreerr.IsValidation(err))
}

func Test_CoerceFields_AcceptsStringListInThreeShapes(t *testing.T) {
	t.Parallel()

	s := issueSchemaWithFields()

	out, err := record.CoerceFields(s, map[string]any{"owner": "alice", "tags": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out["tags"])

	out, err = record.CoerceFields(s, map[string]any{"owner": "alice", "tags": []any{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out["tags"])

	out, err = record.CoerceFields(s, map[string]any{"owner": "alice", "tags": `["a","b"]`})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out["tags"])
}

func Test_CoerceFields_RejectsNonWholeNumber(t *testing.T) {
	t.Parallel()

	s := issueSchemaWithFields()

	_, err := record.CoerceFields(s, map[string]any{"owner": "alice", "estimate": 1.5})
	require.Error(t, err)
}

func Test_ValidateStatus_FallsBackToDefault_When_NotSupplied(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[0]

	got, err := record.ValidateStatus(s, nil)
	require.NoError(t, err)
	assert.Equal(t, s.DefaultStatus, got)
}

func Test_ValidateStatus_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[0]
	bad := "archived"

	_, err := record.ValidateStatus(s, &bad)
	require.Error(t, err)
	assert.True(t, coreerr.IsValidation(err))
}

func Test_ValidateStatus_ReturnsEmpty_When_FeatureDisabled(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[1] // doc: no status feature

	got, err := record.ValidateStatus(s, nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func Test_ValidatePriority_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[0]
	p := 99

	_, err := record.ValidatePriority(s, &p)
	require.Error(t, err)
	assert.True(t, coreerr.IsValidation(err))
}

func Test_ValidatePriority_ReturnsNil_When_NotSupplied(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[0]

	got, err := record.ValidatePriority(s, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func Test_ValidatePriority_ReturnsNil_When_FeatureDisabled(t *testing.T) {
	t.Parallel()

	s := schema.Defaults()[1]
	p := 1

	got, err := record.ValidatePriority(s, &p)
	require.NoError(t, err)
	assert.Nil(t, got)
}
