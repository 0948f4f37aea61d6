package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookport-dev/bookport/internal/gncxml"
)

func testDoc() string {
	g := func(n int) string { return fmt.Sprintf("%032d", n) }
	return strings.NewReplacer(
		"@ROOT@", g(1), "@CHECKING@", g(2), "@FOOD@", g(3),
		"@TXN@", g(4), "@S1@", g(5), "@S2@", g(6),
	).Replace(`<?xml version="1.0" encoding="utf-8" ?>
<gnc-v2
  xmlns:gnc="http://www.gnucash.org/XML/gnc"
  xmlns:act="http://www.gnucash.org/XML/act"
  xmlns:cmdty="http://www.gnucash.org/XML/cmdty"
  xmlns:split="http://www.gnucash.org/XML/split"
  xmlns:trn="http://www.gnucash.org/XML/trn"
  xmlns:ts="http://www.gnucash.org/XML/ts">
<gnc:commodity version="2.0.0">
  <cmdty:space>ISO4217</cmdty:space>
  <cmdty:id>USD</cmdty:id>
  <cmdty:fraction>100</cmdty:fraction>
</gnc:commodity>
<gnc:account version="2.0.0">
  <act:name>Root Account</act:name>
  <act:id type="guid">@ROOT@</act:id>
  <act:type>ROOT</act:type>
</gnc:account>
<gnc:account version="2.0.0">
  <act:name>Checking</act:name>
  <act:id type="guid">@CHECKING@</act:id>
  <act:type>BANK</act:type>
  <act:commodity>
    <cmdty:space>ISO4217</cmdty:space>
    <cmdty:id>USD</cmdty:id>
  </act:commodity>
  <act:parent type="guid">@ROOT@</act:parent>
</gnc:account>
<gnc:account version="2.0.0">
  <act:name>Food</act:name>
  <act:id type="guid">@FOOD@</act:id>
  <act:type>EXPENSE</act:type>
  <act:commodity>
    <cmdty:space>ISO4217</cmdty:space>
    <cmdty:id>USD</cmdty:id>
  </act:commodity>
  <act:parent type="guid">@ROOT@</act:parent>
</gnc:account>
<gnc:transaction version="2.0.0">
  <trn:id type="guid">@TXN@</trn:id>
  <trn:currency>
    <cmdty:space>ISO4217</cmdty:space>
    <cmdty:id>USD</cmdty:id>
  </trn:currency>
  <trn:date-posted>
    <ts:date>2024-02-10 00:00:00 +0000</ts:date>
  </trn:date-posted>
  <trn:date-entered>
    <ts:date>2024-02-10 00:00:00 +0000</ts:date>
  </trn:date-entered>
  <trn:description>Lunch</trn:description>
  <trn:splits>
    <trn:split>
      <split:id type="guid">@S1@</split:id>
      <split:reconciled-state>n</split:reconciled-state>
      <split:value>1500/100</split:value>
      <split:quantity>1500/100</split:quantity>
      <split:account type="guid">@FOOD@</split:account>
    </trn:split>
    <trn:split>
      <split:id type="guid">@S2@</split:id>
      <split:reconciled-state>n</split:reconciled-state>
      <split:value>-1500/100</split:value>
      <split:quantity>1500/100</split:quantity>
      <split:account type="guid">@CHECKING@</split:account>
    </trn:split>
  </trn:splits>
</gnc:transaction>
</gnc-v2>
`)
}

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.gnucash")
	out := filepath.Join(dir, "out.gnucash")
	require.NoError(t, os.WriteFile(in, []byte(testDoc()), 0o644))

	res, err := runConvert(context.Background(), in, out, false, false, "error")
	require.NoError(t, err)
	assert.Equal(t, gncxml.TransportXML, res.Transport)
	assert.Equal(t, 1, res.Transactions)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("<?xml")))
	assert.Contains(t, string(data), "Lunch")
}

func TestRunConvertGzip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.gnucash")
	out := filepath.Join(dir, "out.gnucash")
	require.NoError(t, os.WriteFile(in, []byte(testDoc()), 0o644))

	_, err := runConvert(context.Background(), in, out, true, false, "error")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, data[:2])

	// The gzip output must import back cleanly.
	roundtrip := filepath.Join(dir, "roundtrip.gnucash")
	res, err := runConvert(context.Background(), out, roundtrip, false, false, "error")
	require.NoError(t, err)
	assert.Equal(t, gncxml.TransportGzip, res.Transport)
	assert.Equal(t, 1, res.Transactions)
}

func TestRunConvertMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := runConvert(context.Background(), filepath.Join(dir, "missing"), filepath.Join(dir, "out"), false, false, "error")
	require.Error(t, err)
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.gnucash")
	out := filepath.Join(dir, "out.gnucash")
	require.NoError(t, os.WriteFile(in, []byte(testDoc()), 0o644))

	root := NewRootCommand()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stdout)
	root.SetArgs([]string{"convert", in, out})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "Converted")

	_, err := os.Stat(out)
	require.NoError(t, err)
}
