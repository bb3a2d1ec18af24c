package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindSSDNeedsBothFiles(t *testing.T) {
	dir := t.TempDir()

	_, _, ok := FindSSD(dir)
	assert.False(t, ok, "empty dir should have no SSD pair")

	touch(t, dir, SSDProto)
	_, _, ok = FindSSD(dir)
	assert.False(t, ok, "prototxt alone is not a usable pair")

	touch(t, dir, SSDWeights)
	proto, weights, ok := FindSSD(dir)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, SSDProto), proto)
	assert.Equal(t, filepath.Join(dir, SSDWeights), weights)
}

func TestFindCascadePrefersAlt(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, CascadeDefault)
	touch(t, dir, CascadeAlt)

	p, ok := FindCascade(dir)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, CascadeAlt), p)
}

func TestFindCascadeFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, CascadeDefault)

	p, ok := FindCascade(dir)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, CascadeDefault), p)
}

func TestFindYuNetAndFacefinder(t *testing.T) {
	dir := t.TempDir()

	_, ok := FindYuNet(dir)
	assert.False(t, ok)
	_, ok = FindFacefinder(dir)
	assert.False(t, ok)

	touch(t, dir, YuNetONNX)
	touch(t, dir, Facefinder)

	p, ok := FindYuNet(dir)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, YuNetONNX), p)
	p, ok = FindFacefinder(dir)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, Facefinder), p)
}

func TestDirectoryDoesNotCountAsArtifact(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.Mkdir(filepath.Join(dir, YuNetONNX), 0o755))

	_, ok := FindYuNet(dir)
	assert.False(t, ok, "a directory with the artifact name is not an artifact")
}

func TestReportCoversAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, SSDProto)

	statuses := Report(dir)
	assert.Len(t, statuses, 7)

	byName := map[string]Status{}
	for _, s := range statuses {
		byName[s.Name] = s
	}
	assert.True(t, byName[SSDProto].Present)
	assert.False(t, byName[SSDWeights].Present)
}

func TestEnsureRejectsUnknownName(t *testing.T) {
	err := Ensure(t.TempDir(), "made-up.bin")
	assert.Error(t, err)
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
