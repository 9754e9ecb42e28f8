// ABOUTME: Directory-backed audio resource manager with lock reference counts
// ABOUTME: Maps Audio and Audio36 keys to files and keeps locked data resident
package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio32"
)

// ErrNotFound means no file in the directory matches the resource key
var ErrNotFound = errors.New("resource not found")

// AudioExtensions are tried in order for plain audio numbers
var AudioExtensions = []string{".aud", ".sol", ".wav", ".flac", ".mp3"}

// Audio36Extension is used for every Audio36 tuple
const Audio36Extension = ".a36"

type entry struct {
	data []byte
	refs int
}

// Stats counts resource traffic
type Stats struct {
	Loads    int
	Locks    int
	Unlocks  int
	Resident int
}

// Manager serves resources from one directory.
//
// It is not safe for concurrent use. The mixer only locks and unlocks from
// the engine goroutine, so no lock is needed here.
type Manager struct {
	dir   string
	cache map[audio32.ResourceID]*entry
	stats Stats
}

// NewManager opens a resource directory
func NewManager(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open resource dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resource dir %s is not a directory", dir)
	}

	return &Manager{
		dir:   dir,
		cache: make(map[audio32.ResourceID]*entry),
	}, nil
}

// Dir returns the directory being served
func (m *Manager) Dir() string {
	return m.dir
}

// FileName returns the base name used for id with the given extension
func FileName(id audio32.ResourceID, ext string) string {
	if id.Kind == audio32.KindAudio36 {
		return fmt.Sprintf("%d_%d_%d_%d_%d%s", id.Number, id.Noun, id.Verb, id.Cond, id.Seq, Audio36Extension)
	}
	return strconv.Itoa(int(id.Number)) + ext
}

// ParseName maps a file name back to its resource key
func ParseName(name string) (audio32.ResourceID, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	if ext == Audio36Extension {
		parts := strings.Split(base, "_")
		if len(parts) != 5 {
			return audio32.ResourceID{}, false
		}
		var v [5]int
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 || (i == 0 && n > 0xFFFF) || (i > 0 && n > 0xFF) {
				return audio32.ResourceID{}, false
			}
			v[i] = n
		}
		return audio32.Audio36ID(uint16(v[0]), uint8(v[1]), uint8(v[2]), uint8(v[3]), uint8(v[4])), true
	}

	for _, known := range AudioExtensions {
		if ext != known {
			continue
		}
		n, err := strconv.Atoi(base)
		if err != nil || n < 0 || n > 0xFFFF {
			return audio32.ResourceID{}, false
		}
		return audio32.AudioID(uint16(n)), true
	}
	return audio32.ResourceID{}, false
}

// Path finds the file backing id
func (m *Manager) Path(id audio32.ResourceID) (string, error) {
	exts := AudioExtensions
	if id.Kind == audio32.KindAudio36 {
		exts = []string{Audio36Extension}
	}
	for _, ext := range exts {
		path := filepath.Join(m.dir, FileName(id, ext))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s in %s: %w", id, m.dir, ErrNotFound)
}

// Lock returns the resource data and pins it until a matching Unlock
func (m *Manager) Lock(id audio32.ResourceID) ([]byte, error) {
	if e, ok := m.cache[id]; ok {
		e.refs++
		m.stats.Locks++
		return e.data, nil
	}

	path, err := m.Path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}

	m.cache[id] = &entry{data: data, refs: 1}
	m.stats.Loads++
	m.stats.Locks++
	log.Debugf("Resources: loaded %s (%d bytes)", filepath.Base(path), len(data))
	return data, nil
}

// Unlock releases one lock. Data is evicted once nothing holds it.
func (m *Manager) Unlock(id audio32.ResourceID) {
	e, ok := m.cache[id]
	if !ok {
		log.Warnf("Resources: unlock of %s which is not locked", id)
		return
	}
	m.stats.Unlocks++
	e.refs--
	if e.refs <= 0 {
		delete(m.cache, id)
	}
}

// Refs reports how many locks id currently holds
func (m *Manager) Refs(id audio32.ResourceID) int {
	if e, ok := m.cache[id]; ok {
		return e.refs
	}
	return 0
}

// Stats returns traffic counters
func (m *Manager) Stats() Stats {
	s := m.stats
	s.Resident = len(m.cache)
	return s
}

// List returns every resource in the directory, audio numbers first
func (m *Manager) List() ([]audio32.ResourceID, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", m.dir, err)
	}

	seen := make(map[audio32.ResourceID]bool)
	var ids []audio32.ResourceID
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		id, ok := ParseName(de.Name())
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return FileName(a, "") < FileName(b, "")
	})
	return ids, nil
}
