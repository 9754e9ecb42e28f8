// ABOUTME: Tests for the directory resource manager
// ABOUTME: Covers file naming, lookup order, reference counts and listing
package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sciaudio/sciaudio/pkg/audio32"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		file string
		want audio32.ResourceID
		ok   bool
	}{
		{"aud", "12.aud", audio32.AudioID(12), true},
		{"wav", "7.wav", audio32.AudioID(7), true},
		{"upper case ext", "7.WAV", audio32.AudioID(7), true},
		{"flac", "300.flac", audio32.AudioID(300), true},
		{"a36", "100_1_2_3_4.a36", audio32.Audio36ID(100, 1, 2, 3, 4), true},
		{"a36 short tuple", "100_1_2.a36", audio32.ResourceID{}, false},
		{"a36 byte overflow", "100_1_2_3_256.a36", audio32.ResourceID{}, false},
		{"number overflow", "70000.aud", audio32.ResourceID{}, false},
		{"not a number", "intro.wav", audio32.ResourceID{}, false},
		{"unknown ext", "12.txt", audio32.ResourceID{}, false},
		{"negative", "-1.aud", audio32.ResourceID{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseName(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "5.aud", FileName(audio32.AudioID(5), ".aud"))
	assert.Equal(t, "9_8_7_6_5.a36", FileName(audio32.Audio36ID(9, 8, 7, 6, 5), ".wav"))
}

func TestNewManagerRejectsFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file", nil)

	_, err := NewManager(filepath.Join(dir, "missing"))
	assert.Error(t, err)
	_, err = NewManager(filepath.Join(dir, "file"))
	assert.Error(t, err)
}

func TestLockUnlock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1.wav", []byte("wav"))
	writeFile(t, dir, "1.aud", []byte("aud"))
	writeFile(t, dir, "100_1_2_3_4.a36", []byte("a36"))

	m, err := NewManager(dir)
	require.NoError(t, err)

	data, err := m.Lock(audio32.AudioID(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("aud"), data, ".aud wins over .wav")

	_, err = m.Lock(audio32.AudioID(1))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Refs(audio32.AudioID(1)))

	data, err = m.Lock(audio32.Audio36ID(100, 1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, []byte("a36"), data)

	_, err = m.Lock(audio32.AudioID(2))
	assert.ErrorIs(t, err, ErrNotFound)

	m.Unlock(audio32.AudioID(1))
	assert.Equal(t, 1, m.Refs(audio32.AudioID(1)))
	m.Unlock(audio32.AudioID(1))
	assert.Equal(t, 0, m.Refs(audio32.AudioID(1)))

	// unbalanced unlocks are ignored
	m.Unlock(audio32.AudioID(1))

	st := m.Stats()
	assert.Equal(t, 2, st.Loads)
	assert.Equal(t, 3, st.Locks)
	assert.Equal(t, 2, st.Unlocks)
	assert.Equal(t, 1, st.Resident)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "10.aud", nil)
	writeFile(t, dir, "2.wav", nil)
	writeFile(t, dir, "2.aud", nil)
	writeFile(t, dir, "5_0_0_0_1.a36", nil)
	writeFile(t, dir, "readme.txt", nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "3.aud"), 0o755))

	m, err := NewManager(dir)
	require.NoError(t, err)

	ids, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []audio32.ResourceID{
		audio32.AudioID(2),
		audio32.AudioID(10),
		audio32.Audio36ID(5, 0, 0, 0, 1),
	}, ids)
}
