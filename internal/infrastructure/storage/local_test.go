package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/infrastructure/storage"
)

func TestLocal_GuardarYBorrar(t *testing.T) {
	root := t.TempDir()
	st, err := storage.NewLocal(root, "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	loc, err := st.Save(ctx, "products/import_1_pagne.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "products/import_1_pagne.png", loc)
	assert.Equal(t, "/media/products/import_1_pagne.png", st.URL(loc))

	otro, err := st.Save(ctx, "products/import_1_pagne.png", []byte("otro"))
	require.NoError(t, err)
	assert.NotEqual(t, loc, otro, "no sobrescribe")

	require.NoError(t, st.Delete(ctx, loc))
	_, err = os.Stat(filepath.Join(root, "products", "import_1_pagne.png"))
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, st.Delete(ctx, loc), "borrar dos veces no falla")
}

func TestLocal_NoSaleDelDirectorio(t *testing.T) {
	root := t.TempDir()
	st, err := storage.NewLocal(filepath.Join(root, "media"), "/media")
	require.NoError(t, err)

	loc, err := st.Save(context.Background(), "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", loc)
	_, err = os.Stat(filepath.Join(root, "media", "etc", "passwd"))
	assert.NoError(t, err)

	_, err = st.Save(context.Background(), "", []byte("x"))
	assert.Error(t, err)
}
