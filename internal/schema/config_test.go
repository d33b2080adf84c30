package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/schema"
)

func Test_ParseConfig_ParsesFieldsInDeclarationOrder(t *testing.T) {
	t.Parallel()

	data := []byte(`
name: issue
plural: issues
identifier: uuid
features:
  status: true
  priority: true
statuses: [open, closed]
defaultStatus: open
priorityLevels: 3
fields:
  severity:
    type: enum
    enumValues: [low, high]
  owner:
    type: string
    required: true
  tags:
    type: stringList
`)

	s, err := schema.ParseConfig(data, "issues")
	require.NoError(t, err)

	assert.Equal(t, "issue", s.Name)
	assert.Equal(t, []string{"severity", "owner", "tags"}, s.FieldOrder)
	assert.True(t, s.Fields["owner"].Required)
	assert.Equal(t, schema.FieldEnum, s.Fields["severity"].Type)
	assert.Equal(t, []string{"low", "high"}, s.Fields["severity"].EnumValues)
}

func Test_ParseConfig_RejectsPluralDirMismatch(t *testing.T) {
	t.Parallel()

	data := []byte("name: issue\nplural: issues\nidentifier: uuid\n")

	_, err := schema.ParseConfig(data, "bugs")
	require.Error(t, err)

	var cErr *coreerr.Error
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, coreerr.CodeSchemaInvalid, cErr.Code)
}

func Test_ParseConfig_RejectsUnknownIdentifier(t *testing.T) {
	t.Parallel()

	data := []byte("name: issue\nplural: issues\nidentifier: numeric\n")

	_, err := schema.ParseConfig(data, "issues")
	require.Error(t, err)
	assert.True(t, errors.Is(err, coreerr.CodeSchemaInvalid))
}

func Test_ParseConfig_RejectsDefaultStatusNotInStatuses(t *testing.T) {
	t.Parallel()

	data := []byte(`
name: issue
plural: issues
identifier: uuid
statuses: [open, closed]
defaultStatus: archived
`)

	_, err := schema.ParseConfig(data, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, coreerr.CodeSchemaInvalid))
}

func Test_ParseConfig_RejectsEnumFieldWithoutValues(t *testing.T) {
	t.Parallel()

	data := []byte(`
name: issue
plural: issues
identifier: uuid
fields:
  severity:
    type: enum
`)

	_, err := schema.ParseConfig(data, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, coreerr.CodeSchemaInvalid))
}

func Test_ParseConfig_SameBytes_ProduceSameFingerprint(t *testing.T) {
	t.Parallel()

	data := []byte("name: doc\nplural: docs\nidentifier: slug\n")

	a, err := schema.ParseConfig(data, "docs")
	require.NoError(t, err)

	b, err := schema.ParseConfig(data, "docs")
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotZero(t, a.Fingerprint())
}

func Test_ParseConfig_ParsesTopLevelDefaults(t *testing.T) {
	t.Parallel()

	data := []byte(`
name: issue
plural: issues
identifier: uuid
defaults:
  owner: unassigned
`)

	s, err := schema.ParseConfig(data, "")
	require.NoError(t, err)
	assert.Equal(t, "unassigned", s.Defaults["owner"])
}
