// Package store persists decoded log entries: a columnar, zstd-compressed
// snapshot format for finished captures and an append-only JSON journal for
// crash-safe incremental capture. Both embed the definitions-document digest
// so a recording can be matched against the schema that produced it.
package store

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/coffersTech/camlog/session"
)

// MagicHeader starts every .camlog snapshot file.
var MagicHeader = []byte("CAMLOG1\x00")

// Snapshot layout: magic(8) + schema digest(32) + one compressed block per
// column (timestamp u64, severity u8, source, file, thread, message) +
// footer rowCount(4) minTs(8) maxTs(8). Strings are [len u32][bytes] packed.

type Writer struct {
	encoder *zstd.Encoder
}

func NewWriter() (*Writer, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &Writer{encoder: enc}, nil
}

// WriteSnapshot writes entries to a .camlog file. Entries are written in the
// order given; the footer's min/max timestamps assume that order is
// chronological.
func (w *Writer) WriteSnapshot(filename string, digest [32]byte, entries []session.LogEntry) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(MagicHeader); err != nil {
		return err
	}
	if _, err := f.Write(digest[:]); err != nil {
		return err
	}

	rowCount := uint32(len(entries))
	if rowCount == 0 {
		return w.writeFooter(f, 0, 0, 0)
	}

	if err := w.writeUint64Col(f, entries, func(e session.LogEntry) uint64 { return e.Timestamp }); err != nil {
		return err
	}
	if err := w.writeUint8Col(f, entries, func(e session.LogEntry) uint8 { return uint8(e.Severity) }); err != nil {
		return err
	}
	for _, col := range []func(session.LogEntry) string{
		func(e session.LogEntry) string { return e.SourceName },
		func(e session.LogEntry) string { return e.FileName },
		func(e session.LogEntry) string { return e.ThreadName },
		func(e session.LogEntry) string { return e.Message },
	} {
		if err := w.writeStringCol(f, entries, col); err != nil {
			return err
		}
	}

	return w.writeFooter(f, rowCount, entries[0].Timestamp, entries[len(entries)-1].Timestamp)
}

func (w *Writer) writeUint64Col(f *os.File, entries []session.LogEntry, get func(session.LogEntry) uint64) error {
	buf := new(bytes.Buffer)
	for _, e := range entries {
		binary.Write(buf, binary.LittleEndian, get(e))
	}
	return w.compressAndWrite(f, buf.Bytes())
}

func (w *Writer) writeUint8Col(f *os.File, entries []session.LogEntry, get func(session.LogEntry) uint8) error {
	buf := make([]byte, len(entries))
	for i, e := range entries {
		buf[i] = get(e)
	}
	return w.compressAndWrite(f, buf)
}

func (w *Writer) writeStringCol(f *os.File, entries []session.LogEntry, get func(session.LogEntry) string) error {
	buf := new(bytes.Buffer)
	for _, e := range entries {
		s := get(e)
		binary.Write(buf, binary.LittleEndian, uint32(len(s)))
		buf.WriteString(s)
	}
	return w.compressAndWrite(f, buf.Bytes())
}

func (w *Writer) compressAndWrite(f *os.File, raw []byte) error {
	compressed := w.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))

	size := uint32(len(compressed))
	if err := binary.Write(f, binary.LittleEndian, size); err != nil {
		return err
	}
	_, err := f.Write(compressed)
	return err
}

func (w *Writer) writeFooter(f *os.File, rowCount uint32, minTs, maxTs uint64) error {
	if err := binary.Write(f, binary.LittleEndian, rowCount); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, minTs); err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, maxTs)
}
