package importer

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/domain"
)

func TestZipJoin(t *testing.T) {
	cases := []struct {
		base, target, want string
		ok                 bool
	}{
		{"xl/worksheets", "../drawings/drawing1.xml", "xl/drawings/drawing1.xml", true},
		{"xl/drawings", "../media/image1.png", "xl/media/image1.png", true},
		{"xl", "/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml", true},
		{"xl", "worksheets/sheet1.xml", "xl/worksheets/sheet1.xml", true},
		{"xl/drawings", "../../../etc/passwd", "", false},
		{"xl", "https://example.com/a.png", "", false},
		{"xl", "", "", false},
		{"xl", "/", "", false},
		{"xl", "..", "", false},
	}
	for _, c := range cases {
		got, ok := zipJoin(c.base, c.target)
		assert.Equal(t, c.ok, ok, c.target)
		assert.Equal(t, c.want, got, c.target)
	}
}

func TestSniffExtension(t *testing.T) {
	assert.Equal(t, "png", SniffExtension([]byte("\x89PNG\r\n\x1a\n....")))
	assert.Equal(t, "jpg", SniffExtension([]byte{0xff, 0xd8, 0xff, 0xe0}))
	assert.Equal(t, "gif", SniffExtension([]byte("GIF89a...")))
	assert.Equal(t, "gif", SniffExtension([]byte("GIF87a...")))
	assert.Equal(t, "webp", SniffExtension([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.Equal(t, "", SniffExtension([]byte("RIFF\x00\x00\x00\x00WAVE")))
	assert.Equal(t, "", SniffExtension([]byte("%PDF-1.7")))
	assert.Equal(t, "", SniffExtension(nil))
}

func TestRowImages_DedupeYCercania(t *testing.T) {
	a := bytes.Repeat([]byte{1}, 40)
	b := append(bytes.Repeat([]byte{1}, 39), 2)
	ri := rowImages{
		2: {{col: 3, data: a}, {col: 3, data: append([]byte(nil), a...)}, {col: 5, data: b}, {col: 1, data: nil}},
		4: {{col: 1, data: b}},
	}
	ri.dedupe()

	assert.Len(t, ri[2], 2, "misma columna, tamaño, cabeza y cola cuentan una vez")
	assert.Equal(t, 3, ri.count())
	assert.Equal(t, b, ri.nearest(2, 6))
	assert.Equal(t, a, ri.nearest(2, 2))
	assert.Equal(t, a, ri.nearest(2, 0), "sin columna de imagen se toma la primera")
	assert.Nil(t, ri.nearest(3, 1))
	assert.Equal(t, []int{2}, ri.rows(1))
	assert.Equal(t, []int{2, 4}, ri.rows(12))
}

func TestReadArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range map[string]string{
		"Photos/PAGNE.PNG": "png",
		"vacio.png":        "",
		"dir/":             "",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	a, err := readArchive(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, a.total)
	assert.Len(t, a.files, 1)

	name, data, ok := a.lookup(`D:\export\pagne.png`)
	require.True(t, ok)
	assert.Equal(t, "pagne.png", name)
	assert.Equal(t, []byte("png"), data)

	_, _, ok = a.lookup("otra.png")
	assert.False(t, ok)

	_, err = readArchive([]byte("no es un zip"))
	assert.ErrorIs(t, err, domain.ErrMalformedUpload)
}

func TestImageFileName(t *testing.T) {
	assert.Equal(t, "products/import_01J_pagne-wax.png", imageFileName("01J", 7, "Pagne Wax.PNG", "png"))
	assert.Equal(t, "products/import_01J_7.jpg", imageFileName("01J", 7, "", "jpg"))
	assert.Equal(t, "products/import_01J_image.gif", imageFileName("01J", 7, "***.gif", "gif"))
}
