package store

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffersTech/camlog/schema"
	"github.com/coffersTech/camlog/session"
)

func sampleEntries() []session.LogEntry {
	return []session.LogEntry{
		{Timestamp: 100, Severity: schema.SeverityInfo, SourceName: "HKR",
			FileName: "hw.c", ThreadName: "main", Message: "power=42 state=ON"},
		{Timestamp: 200, Severity: schema.SeverityError, SourceName: "HKR",
			FileName: "hw.c", ThreadName: "main", Message: "sensor fault 3"},
		{Timestamp: 300, Severity: schema.SeverityInfo, SourceName: "GVD",
			FileName: "depth.c", ThreadName: "isp", Message: "frame drop"},
	}
}

func writeSample(t *testing.T, digest [32]byte, entries []session.LogEntry) string {
	t.Helper()
	w, err := NewWriter()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "capture.camlog")
	require.NoError(t, w.WriteSnapshot(path, digest, entries))
	return path
}

func TestSnapshotRoundTrip(t *testing.T) {
	digest := [32]byte{1, 2, 3}
	path := writeSample(t, digest, sampleEntries())

	r, err := NewReader()
	require.NoError(t, err)
	got, gotDigest, err := r.ReadSnapshot(path, Filter{})
	require.NoError(t, err)

	assert.Equal(t, digest, gotDigest)
	require.Len(t, got, 3)
	assert.Equal(t, "power=42 state=ON", got[0].Message)
	assert.Equal(t, uint64(100), got[0].Timestamp)
	assert.Equal(t, schema.SeverityInfo, got[0].Severity)
	assert.Equal(t, "HKR", got[0].SourceName)
	assert.Equal(t, "depth.c", got[2].FileName)
	assert.Equal(t, "isp", got[2].ThreadName)
}

func TestSnapshotFilters(t *testing.T) {
	path := writeSample(t, [32]byte{}, sampleEntries())
	r, err := NewReader()
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"power=42 state=ON", "sensor fault 3", "frame drop"}},
		{"min time", Filter{MinTime: 150}, []string{"sensor fault 3", "frame drop"}},
		{"max time", Filter{MaxTime: 250}, []string{"power=42 state=ON", "sensor fault 3"}},
		{"time window", Filter{MinTime: 150, MaxTime: 250}, []string{"sensor fault 3"}},
		{"severity", Filter{Severity: schema.SeverityError}, []string{"sensor fault 3"}},
		{"source", Filter{Source: "GVD"}, []string{"frame drop"}},
		{"query", Filter{Query: "fault"}, []string{"sensor fault 3"}},
		{"no match", Filter{Source: "NONE"}, nil},
		{"whole file skipped", Filter{MinTime: 1000}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := r.ReadSnapshot(path, tc.filter)
			require.NoError(t, err)

			var messages []string
			for _, e := range got {
				messages = append(messages, e.Message)
			}
			assert.Equal(t, tc.want, messages)
		})
	}
}

func TestSnapshotIterator(t *testing.T) {
	path := writeSample(t, [32]byte{}, sampleEntries())
	r, err := NewReader()
	require.NoError(t, err)

	it, err := r.NewIterator(path, Filter{Severity: schema.SeverityInfo})
	require.NoError(t, err)
	defer it.Close()

	var count int
	for it.Next() {
		assert.Equal(t, schema.SeverityInfo, it.Entry().Severity)
		count++
	}
	require.NoError(t, it.Err())
	assert.Equal(t, 2, count)
}

func TestSnapshotEmpty(t *testing.T) {
	digest := [32]byte{9}
	path := writeSample(t, digest, nil)

	r, err := NewReader()
	require.NoError(t, err)
	got, gotDigest, err := r.ReadSnapshot(path, Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, digest, gotDigest)
}

func TestSnapshotShortColumnFailsInsteadOfPanicking(t *testing.T) {
	// A crafted file whose footer declares one row but whose files column is
	// empty must fail iterator init, not blow up on the row access.
	w, err := NewWriter()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "corrupt.camlog")
	f, err := os.Create(path)
	require.NoError(t, err)

	_, err = f.Write(MagicHeader)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, 32))
	require.NoError(t, err)

	// One row of timestamps, severities, sources and messages, but empty
	// files and threads columns.
	require.NoError(t, w.compressAndWrite(f, make([]byte, 8)))
	require.NoError(t, w.compressAndWrite(f, []byte{1}))
	require.NoError(t, w.compressAndWrite(f, []byte{3, 0, 0, 0, 'H', 'K', 'R'}))
	require.NoError(t, w.compressAndWrite(f, nil))
	require.NoError(t, w.compressAndWrite(f, nil))
	require.NoError(t, w.compressAndWrite(f, []byte{2, 0, 0, 0, 'o', 'k'}))
	require.NoError(t, w.writeFooter(f, 1, 0, 0))
	require.NoError(t, f.Close())

	r, err := NewReader()
	require.NoError(t, err)
	_, _, err = r.ReadSnapshot(path, Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column length mismatch")
}

func TestSnapshotInvalidHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.camlog")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0644))

	r, err := NewReader()
	require.NoError(t, err)
	_, _, err = r.ReadSnapshot(path, Filter{})
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestJournalAppendReplay(t *testing.T) {
	digest := [32]byte{0xab, 0xcd}
	path := filepath.Join(t.TempDir(), "capture.journal")

	j, err := OpenJournal(path, digest)
	require.NoError(t, err)

	entries := []session.LogEntry{
		{Timestamp: 11, Severity: schema.SeverityDebug, SourceID: 0, SourceName: "HKR",
			FileName: "hw.c", ModuleName: "ctrl", ThreadName: "main", Sequence: 1, Message: "first"},
		{Timestamp: 22, Severity: schema.SeverityError, SourceID: 1, SourceName: "GVD",
			FileName: "depth.c", ModuleName: "isp", ThreadName: "isp", Sequence: 2, Message: "second"},
	}
	for _, e := range entries {
		require.NoError(t, j.Append(e))
	}
	require.NoError(t, j.Sync())

	got, gotDigest, err := j.Replay()
	require.NoError(t, err)
	assert.Equal(t, digest, gotDigest)
	assert.Equal(t, entries, got)

	// Replay restores the append position.
	require.NoError(t, j.Append(session.LogEntry{Timestamp: 33, Message: "third"}))
	got, _, err = j.Replay()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[2].Message)
	require.NoError(t, j.Close())
}

func TestJournalReopen(t *testing.T) {
	digest := [32]byte{7}
	path := filepath.Join(t.TempDir(), "capture.journal")

	j, err := OpenJournal(path, digest)
	require.NoError(t, err)
	require.NoError(t, j.Append(session.LogEntry{Timestamp: 1, Message: "before crash"}))
	require.NoError(t, j.Close())

	// Reopening keeps the original digest header and appends after it.
	j, err = OpenJournal(path, [32]byte{99})
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Append(session.LogEntry{Timestamp: 2, Message: "after reopen"}))

	got, gotDigest, err := j.Replay()
	require.NoError(t, err)
	assert.Equal(t, digest, gotDigest)
	require.Len(t, got, 2)
	assert.Equal(t, "before crash", got[0].Message)
	assert.Equal(t, "after reopen", got[1].Message)
}

func TestJournalReplayRejectsCorruptDigestHeader(t *testing.T) {
	writeHeaderRow := func(t *testing.T, row string) string {
		t.Helper()
		data := []byte(`{"schema_digest":"` + row + `"}`)
		buf := make([]byte, 4, 4+len(data))
		binary.LittleEndian.PutUint32(buf, uint32(len(data)))
		path := filepath.Join(t.TempDir(), "capture.journal")
		require.NoError(t, os.WriteFile(path, append(buf, data...), 0644))
		return path
	}

	t.Run("truncated digest", func(t *testing.T) {
		j, err := OpenJournal(writeHeaderRow(t, "abcd"), [32]byte{})
		require.NoError(t, err)
		defer j.Close()
		_, _, err = j.Replay()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "journal replay (digest)")
	})

	t.Run("non-hex digest", func(t *testing.T) {
		j, err := OpenJournal(writeHeaderRow(t, strings.Repeat("zz", 32)), [32]byte{})
		require.NoError(t, err)
		defer j.Close()
		_, _, err = j.Replay()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "journal replay (digest)")
	})
}

func TestJournalCompactToSnapshot(t *testing.T) {
	digest := [32]byte{5, 5}
	dir := t.TempDir()

	j, err := OpenJournal(filepath.Join(dir, "live.journal"), digest)
	require.NoError(t, err)
	for _, e := range sampleEntries() {
		require.NoError(t, j.Append(e))
	}

	entries, gotDigest, err := j.Replay()
	require.NoError(t, err)
	require.NoError(t, j.Close())

	w, err := NewWriter()
	require.NoError(t, err)
	snapPath := filepath.Join(dir, "compacted.camlog")
	require.NoError(t, w.WriteSnapshot(snapPath, gotDigest, entries))

	r, err := NewReader()
	require.NoError(t, err)
	got, snapDigest, err := r.ReadSnapshot(snapPath, Filter{})
	require.NoError(t, err)
	assert.Equal(t, digest, snapDigest)
	require.Len(t, got, 3)
	assert.Equal(t, "sensor fault 3", got[1].Message)
}
