package gncxml

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func zipped(t *testing.T, name, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	require.NoError(t, err)
	_, err = f.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSniffRawXML(t *testing.T) {
	body := "<?xml version=\"1.0\"?><gnc-v2/>"
	r, transport, err := Sniff(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, TransportXML, transport)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestSniffGzip(t *testing.T) {
	body := "<gnc-v2></gnc-v2>"
	r, transport, err := Sniff(bytes.NewReader(gzipped(t, body)))
	require.NoError(t, err)
	assert.Equal(t, TransportGzip, transport)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestSniffZip(t *testing.T) {
	body := "<gnc-v2></gnc-v2>"
	r, transport, err := Sniff(bytes.NewReader(zipped(t, "book.gnucash", body)))
	require.NoError(t, err)
	assert.Equal(t, TransportZip, transport)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestSniffEmptyZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())

	_, _, err := Sniff(bytes.NewReader(buf.Bytes()))
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
}

func TestSniffShortStream(t *testing.T) {
	_, _, err := Sniff(strings.NewReader("<"))
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.True(t, errors.Is(err, io.EOF) || terr.Err != nil)
}

func TestSniffShortNonMagicPrefix(t *testing.T) {
	// Three bytes is too short for the zip magic but plenty for raw XML.
	r, transport, err := Sniff(strings.NewReader("<a>"))
	require.NoError(t, err)
	assert.Equal(t, TransportXML, transport)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "<a>", string(got))
}
