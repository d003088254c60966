// Package session ties the schema registry, formatter and frame codec into
// one decoding session. A session is built once per connected firmware and
// then decodes raw frames from any number of goroutines; the underlying
// registry is immutable, so no locking is involved.
package session

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coffersTech/camlog/format"
	"github.com/coffersTech/camlog/frame"
	"github.com/coffersTech/camlog/registry"
	"github.com/coffersTech/camlog/schema"
)

// Firmware limits on schema ids.
const (
	MaxSourceID = 2
	MaxModuleID = 31
)

// Legacy frames always carry three 4-byte parameters.
const legacyMaxArgs = 3

// Config carries everything needed to open a session.
type Config struct {
	// Definitions is the raw definitions document for this firmware.
	Definitions []byte

	// Fetch resolves the parser-contents file paths the definitions document
	// references. Required.
	Fetch registry.FetchFunc

	// ExpectedVersions optionally pins the schema version per source id.
	ExpectedVersions map[int]string

	Logger  *zap.Logger
	Metrics *Metrics
}

// LogEntry is one fully decoded firmware log message.
type LogEntry struct {
	Timestamp  uint64
	Severity   schema.Severity
	SourceID   int
	SourceName string
	FileName   string
	ModuleName string
	ThreadName string
	Sequence   uint32
	Message    string
}

// Session decodes raw log frames for one firmware connection.
type Session struct {
	id        string
	reg       *registry.Registry
	formatter *format.Formatter
	logger    *zap.Logger
	metrics   *Metrics
}

// New validates the definitions document, loads every referenced
// parser-contents document and returns a ready session.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reg, err := registry.Build(cfg.Definitions, cfg.Fetch, registry.BuildConfig{
		ExpectedVersions: cfg.ExpectedVersions,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	if err := validateRanges(reg); err != nil {
		return nil, err
	}

	s := &Session{
		id:        uuid.New().String(),
		reg:       reg,
		formatter: format.NewFormatter(reg),
		logger:    logger,
		metrics:   cfg.Metrics,
	}
	logger.Info("firmware log session ready",
		zap.String("session_id", s.id),
		zap.Ints("sources", reg.Sources()))
	return s, nil
}

// validateRanges enforces the firmware limits on source and module ids.
func validateRanges(reg *registry.Registry) error {
	for _, id := range reg.Sources() {
		src, err := reg.Schema(id)
		if err != nil {
			return err
		}
		if id < 0 || id > MaxSourceID {
			return fmt.Errorf("supporting source id 0 to %d, found source (%d, %s)",
				MaxSourceID, id, src.Name)
		}
		for moduleID := range src.ModuleVerbosity {
			if moduleID < 0 || moduleID > MaxModuleID {
				return fmt.Errorf("supporting module id 0 to %d, found module %d in source (%d, %s)",
					MaxModuleID, moduleID, id, src.Name)
			}
		}
	}
	return nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Registry returns the session's schema registry.
func (s *Session) Registry() *registry.Registry { return s.reg }

// ShouldLog reports whether a message of the given severity from the given
// module is active under the source's verbosity configuration. Unknown
// sources and modules are inactive.
func (s *Session) ShouldLog(sourceID, moduleID int, severity schema.Severity) bool {
	src, err := s.reg.Schema(sourceID)
	if err != nil {
		return false
	}
	v, ok := src.ModuleVerbosity[moduleID]
	if !ok {
		return false
	}
	return v.Allows(severity)
}

// DecodeFrame decodes one raw frame into a LogEntry. Failures are local to
// the frame: the session stays valid and the next frame decodes normally.
func (s *Session) DecodeFrame(raw []byte) (LogEntry, error) {
	fr, err := frame.Decode(raw)
	if err != nil {
		s.countFailure("unknown")
		return LogEntry{}, err
	}

	src, err := s.reg.Schema(fr.SourceID)
	if err != nil {
		s.countFailure(strconv.Itoa(fr.SourceID))
		return LogEntry{}, err
	}

	blob := fr.Blob
	if fr.Params == nil {
		// Legacy frames carry three dwords regardless of how many the event
		// consumes; trim to the declared count before strict decode.
		ev, err := s.reg.Event(fr.SourceID, fr.EventID)
		if err != nil {
			s.countFailure(src.Name)
			return LogEntry{}, err
		}
		if ev.NumArgs > legacyMaxArgs {
			s.countFailure(src.Name)
			return LogEntry{}, &format.ArgumentCountMismatchError{Declared: ev.NumArgs, Parsed: legacyMaxArgs}
		}
		blob = blob[:format.DefaultParamWidth*ev.NumArgs]
	}

	msg, err := s.formatter.GenerateMessage(fr.SourceID, fr.EventID, fr.Params, blob)
	if err != nil {
		s.countFailure(src.Name)
		s.logger.Debug("frame decode failed",
			zap.Int("source_id", fr.SourceID),
			zap.Int("event_id", fr.EventID),
			zap.Error(err))
		return LogEntry{}, err
	}

	if s.metrics != nil {
		s.metrics.FramesDecoded.WithLabelValues(src.Name).Inc()
	}
	return LogEntry{
		Timestamp:  fr.Timestamp,
		Severity:   fr.Severity,
		SourceID:   fr.SourceID,
		SourceName: src.Name,
		FileName:   nameOrID(src.Files, fr.FileID),
		ModuleName: nameOrID(src.Modules, fr.ModuleID),
		ThreadName: nameOrID(src.Threads, fr.ThreadID),
		Sequence:   fr.Sequence,
		Message:    msg,
	}, nil
}

// DecodeStream decodes a batch of raw frames. A frame that fails to decode
// yields a diagnostic placeholder entry instead of aborting the stream.
func (s *Session) DecodeStream(frames [][]byte) []LogEntry {
	entries := make([]LogEntry, 0, len(frames))
	for _, raw := range frames {
		entry, err := s.DecodeFrame(raw)
		if err != nil {
			entry = placeholderEntry(raw, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// placeholderEntry stands in for one undecodable frame, carrying whatever
// header fields could still be read.
func placeholderEntry(raw []byte, cause error) LogEntry {
	entry := LogEntry{
		Severity: schema.SeverityError,
		Message:  fmt.Sprintf("<undecodable frame: %v>", cause),
	}
	if fr, err := frame.Decode(raw); err == nil {
		entry.Timestamp = fr.Timestamp
		entry.SourceID = fr.SourceID
		entry.Sequence = fr.Sequence
	}
	return entry
}

func nameOrID(names map[int]string, id int) string {
	if name, ok := names[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

func (s *Session) countFailure(source string) {
	if s.metrics != nil {
		s.metrics.DecodeFailures.WithLabelValues(source).Inc()
	}
}
