package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRow_MetadataComprimida(t *testing.T) {
	raw := []byte(`{"errors":["` + strings.Repeat("fila 3: nombre vacío ", 400) + `"]}`)
	require.Greater(t, len(raw), auditCompressThreshold)

	row := auditRow{ID: "01J", Action: "import", Metadata: []byte("{}"), MetadataZstd: zstdEncoder.EncodeAll(raw, nil)}
	e, err := row.entity()
	require.NoError(t, err)
	errs, ok := e.Metadata["errors"].([]any)
	require.True(t, ok)
	assert.Len(t, errs, 1)
}

func TestAuditRow_MetadataPlana(t *testing.T) {
	row := auditRow{ID: "01J", Action: "delete", Metadata: []byte(`{"deleted_products":2}`)}
	e, err := row.entity()
	require.NoError(t, err)
	assert.EqualValues(t, 2, e.Metadata["deleted_products"])
}

func TestWriteErr_Traduccion(t *testing.T) {
	assert.NoError(t, writeErr("op", nil))
	assert.ErrorContains(t, writeErr("insert x", assert.AnError), "insert x")
}
