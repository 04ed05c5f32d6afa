// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelsAndPrefixes(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, true)

	l.Infof("searching for %q", "Rhinoplasty")
	l.Warnf("search failed")
	l.Errorf("delivery failed")
	l.Debugf("query: %s", "term")

	out := buf.String()
	assert.Contains(t, out, `INFO  searching for "Rhinoplasty"`)
	assert.Contains(t, out, "WARN  search failed")
	assert.Contains(t, out, "ERROR delivery failed")
	assert.Contains(t, out, "DEBUG query: term")
}

func TestDebugSuppressedWithoutVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, false)

	l.Debugf("hidden detail")
	l.Infof("visible entry")

	out := buf.String()
	assert.NotContains(t, out, "hidden detail")
	assert.Contains(t, out, "visible entry")
}

func TestNewAppendsToDatedFile(t *testing.T) {
	dir := t.TempDir()

	l := New(dir, false)
	l.Infof("first run entry")
	require.NoError(t, l.Close())

	l = New(dir, false)
	l.Infof("second run entry")
	require.NoError(t, l.Close())

	path := filepath.Join(dir, "scout-"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "first run entry")
	assert.Contains(t, out, "second run entry")
	assert.Less(t, strings.Index(out, "first run entry"), strings.Index(out, "second run entry"))
}

func TestNewWithoutLogDir(t *testing.T) {
	l := New("", false)
	require.NoError(t, l.Close())
}
