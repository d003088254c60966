package store

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/valyala/fastjson"

	"github.com/coffersTech/camlog/schema"
	"github.com/coffersTech/camlog/session"
)

// Journal is an append-only record of decoded entries, written as
// length-prefixed JSON rows: [len u32][JSON bytes]. It survives crashes
// mid-capture; a finished capture is normally compacted into a snapshot.
type Journal struct {
	file  *os.File
	path  string
	mu    sync.Mutex
	arena fastjson.Arena
}

// OpenJournal opens or creates a journal file. A fresh journal records the
// schema digest as its first row.
func OpenJournal(path string, digest [32]byte) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	j := &Journal{file: f, path: path}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		j.mu.Lock()
		defer j.mu.Unlock()
		header := j.arena.NewObject()
		header.Set("schema_digest", j.arena.NewString(hex.EncodeToString(digest[:])))
		err := j.writeRow(header.MarshalTo(nil))
		j.arena.Reset()
		if err != nil {
			f.Close()
			return nil, err
		}
	}
	return j, nil
}

// Append records one decoded entry.
func (j *Journal) Append(e session.LogEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	obj := j.arena.NewObject()
	obj.Set("ts", j.arena.NewNumberString(fmt.Sprintf("%d", e.Timestamp)))
	obj.Set("severity", j.arena.NewNumberInt(int(e.Severity)))
	obj.Set("source_id", j.arena.NewNumberInt(e.SourceID))
	obj.Set("source", j.arena.NewString(e.SourceName))
	obj.Set("file", j.arena.NewString(e.FileName))
	obj.Set("module", j.arena.NewString(e.ModuleName))
	obj.Set("thread", j.arena.NewString(e.ThreadName))
	obj.Set("seq", j.arena.NewNumberInt(int(e.Sequence)))
	obj.Set("message", j.arena.NewString(e.Message))

	err := j.writeRow(obj.MarshalTo(nil))
	j.arena.Reset()
	return err
}

func (j *Journal) writeRow(data []byte) error {
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(data)))

	if _, err := j.file.Write(lenBuf); err != nil {
		return err
	}
	_, err := j.file.Write(data)
	return err
}

// Sync flushes the journal file buffers to disk.
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Sync()
}

// Close closes the journal file.
func (j *Journal) Close() error {
	return j.file.Close()
}

// Replay reads back every entry in the journal and the schema digest the
// capture was made against.
func (j *Journal) Replay() ([]session.LogEntry, [32]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, [32]byte{}, err
	}

	var (
		digest  [32]byte
		entries []session.LogEntry
		parser  fastjson.Parser
		first   = true
	)
	for {
		lenBuf := make([]byte, 4)
		_, err := io.ReadFull(j.file, lenBuf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, digest, fmt.Errorf("journal replay (len): %w", err)
		}

		length := binary.LittleEndian.Uint32(lenBuf)
		data := make([]byte, length)
		if _, err := io.ReadFull(j.file, data); err != nil {
			return entries, digest, fmt.Errorf("journal replay (data): %w", err)
		}

		v, err := parser.ParseBytes(data)
		if err != nil {
			return entries, digest, fmt.Errorf("journal replay (parse): %w", err)
		}

		if first {
			first = false
			if raw := v.GetStringBytes("schema_digest"); raw != nil {
				if len(raw) != hex.EncodedLen(len(digest)) {
					return entries, digest, fmt.Errorf("journal replay (digest): got %d hex chars, want %d",
						len(raw), hex.EncodedLen(len(digest)))
				}
				if _, err := hex.Decode(digest[:], raw); err != nil {
					return entries, digest, fmt.Errorf("journal replay (digest): %w", err)
				}
				continue
			}
		}

		entries = append(entries, session.LogEntry{
			Timestamp:  v.GetUint64("ts"),
			Severity:   schema.Severity(v.GetUint("severity")),
			SourceID:   v.GetInt("source_id"),
			SourceName: string(v.GetStringBytes("source")),
			FileName:   string(v.GetStringBytes("file")),
			ModuleName: string(v.GetStringBytes("module")),
			ThreadName: string(v.GetStringBytes("thread")),
			Sequence:   uint32(v.GetUint("seq")),
			Message:    string(v.GetStringBytes("message")),
		})
	}

	// Restore append position.
	if _, err := j.file.Seek(0, io.SeekEnd); err != nil {
		return entries, digest, err
	}
	return entries, digest, nil
}
