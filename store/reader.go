package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/coffersTech/camlog/schema"
	"github.com/coffersTech/camlog/session"
)

var ErrInvalidHeader = errors.New("invalid .camlog file header")

// Filter defines criteria for entry retrieval.
type Filter struct {
	MinTime  uint64
	MaxTime  uint64
	Severity schema.Severity // exact match when non-zero
	Source   string
	Query    string // substring search in message
}

// EntryIterator provides an entry-by-entry view of a snapshot.
type EntryIterator interface {
	Next() bool
	Entry() session.LogEntry
	Err() error
	Close() error
}

type Reader struct {
	decoder *zstd.Decoder
}

func NewReader() (*Reader, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Reader{decoder: dec}, nil
}

// NewIterator opens a .camlog file for filtered iteration.
func (r *Reader) NewIterator(filename string, filter Filter) (EntryIterator, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	it := &fileIterator{
		reader: r,
		file:   f,
		filter: filter,
	}
	if err := it.init(); err != nil {
		f.Close()
		return nil, err
	}
	return it, nil
}

// ReadSnapshot reads a .camlog file and returns the entries matching the
// filter along with the schema digest the recording was made against.
func (r *Reader) ReadSnapshot(filename string, filter Filter) ([]session.LogEntry, [32]byte, error) {
	it, err := r.NewIterator(filename, filter)
	if err != nil {
		return nil, [32]byte{}, err
	}
	defer it.Close()

	var entries []session.LogEntry
	for it.Next() {
		entries = append(entries, it.Entry())
	}
	return entries, it.(*fileIterator).digest, it.Err()
}

type fileIterator struct {
	reader *Reader
	file   *os.File
	filter Filter
	digest [32]byte

	timestamps []uint64
	severities []uint8
	sources    []string
	files      []string
	threads    []string
	messages   []string

	rowCount  int
	cursor    int
	currEntry session.LogEntry
	err       error
}

func (it *fileIterator) init() error {
	header := make([]byte, len(MagicHeader))
	if _, err := io.ReadFull(it.file, header); err != nil {
		return err
	}
	if !bytes.Equal(header, MagicHeader) {
		return ErrInvalidHeader
	}
	if _, err := io.ReadFull(it.file, it.digest[:]); err != nil {
		return err
	}

	// Footer: rowCount(4) + minTs(8) + maxTs(8).
	info, err := it.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < int64(len(MagicHeader)+32+20) {
		return errors.New("file too small")
	}

	footer := make([]byte, 20)
	if _, err := it.file.ReadAt(footer, info.Size()-20); err != nil {
		return err
	}
	rowCount := binary.LittleEndian.Uint32(footer[0:4])
	minTs := binary.LittleEndian.Uint64(footer[4:12])
	maxTs := binary.LittleEndian.Uint64(footer[12:20])

	it.rowCount = int(rowCount)
	it.cursor = -1

	// Skip the whole file when its time range misses the filter.
	if rowCount > 0 {
		if it.filter.MinTime > 0 && maxTs < it.filter.MinTime {
			it.rowCount = 0
			return nil
		}
		if it.filter.MaxTime > 0 && minTs > it.filter.MaxTime {
			it.rowCount = 0
			return nil
		}
	}
	if rowCount == 0 {
		return nil
	}

	tsData, err := it.reader.readAndDecompress(it.file)
	if err != nil {
		return err
	}
	it.timestamps = bytesToUint64Slice(tsData)

	sevData, err := it.reader.readAndDecompress(it.file)
	if err != nil {
		return err
	}
	it.severities = sevData

	for _, dst := range []*[]string{&it.sources, &it.files, &it.threads, &it.messages} {
		data, err := it.reader.readAndDecompress(it.file)
		if err != nil {
			return err
		}
		*dst = bytesToStringSlice(data)
	}

	if it.rowCount != len(it.timestamps) || it.rowCount != len(it.severities) ||
		it.rowCount != len(it.sources) || it.rowCount != len(it.files) ||
		it.rowCount != len(it.threads) || it.rowCount != len(it.messages) {
		return errors.New("column length mismatch")
	}
	return nil
}

func (it *fileIterator) Next() bool {
	for {
		it.cursor++
		if it.cursor >= it.rowCount {
			return false
		}

		ts := it.timestamps[it.cursor]
		if it.filter.MinTime > 0 && ts < it.filter.MinTime {
			continue
		}
		if it.filter.MaxTime > 0 && ts > it.filter.MaxTime {
			continue
		}
		sev := it.severities[it.cursor]
		if it.filter.Severity > 0 && sev != uint8(it.filter.Severity) {
			continue
		}
		src := it.sources[it.cursor]
		if it.filter.Source != "" && src != it.filter.Source {
			continue
		}
		msg := it.messages[it.cursor]
		if it.filter.Query != "" && !strings.Contains(msg, it.filter.Query) {
			continue
		}

		it.currEntry = session.LogEntry{
			Timestamp:  ts,
			Severity:   schema.Severity(sev),
			SourceName: src,
			FileName:   it.files[it.cursor],
			ThreadName: it.threads[it.cursor],
			Message:    msg,
		}
		return true
	}
}

func (it *fileIterator) Entry() session.LogEntry { return it.currEntry }

func (it *fileIterator) Err() error { return it.err }

func (it *fileIterator) Close() error { return it.file.Close() }

// readAndDecompress reads one compressed block (size + data) and decompresses it.
func (r *Reader) readAndDecompress(f io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(f, binary.LittleEndian, &size); err != nil {
		return nil, err
	}

	compressed := make([]byte, size)
	if _, err := io.ReadFull(f, compressed); err != nil {
		return nil, err
	}
	return r.decoder.DecodeAll(compressed, nil)
}

func bytesToUint64Slice(data []byte) []uint64 {
	count := len(data) / 8
	result := make([]uint64, count)
	for i := 0; i < count; i++ {
		result[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return result
}

// bytesToStringSlice unpacks [len u32][bytes]... packed strings.
func bytesToStringSlice(data []byte) []string {
	var result []string
	buf := bytes.NewReader(data)

	for buf.Len() > 0 {
		var length uint32
		if err := binary.Read(buf, binary.LittleEndian, &length); err != nil {
			break
		}
		strBytes := make([]byte, length)
		if _, err := io.ReadFull(buf, strBytes); err != nil {
			break
		}
		result = append(result, string(strBytes))
	}
	return result
}
