// Command camlog decodes a captured firmware log stream against its schema
// documents. The capture file is a sequence of length-prefixed raw frames
// ([len u32][frame bytes], little-endian). Decoded entries go to stdout, or
// to a columnar snapshot file with -out.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/coffersTech/camlog/session"
	"github.com/coffersTech/camlog/store"
)

func main() {
	definitions := flag.String("definitions", "", "Path to the definitions XML document")
	input := flag.String("input", "", "Path to the captured frame stream")
	out := flag.String("out", "", "Write a .camlog snapshot instead of printing")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if *definitions == "" || *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(*definitions, *input, *out, logger); err != nil {
		logger.Fatal("decode failed", zap.Error(err))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

func run(definitionsPath, inputPath, outPath string, logger *zap.Logger) error {
	defs, err := os.ReadFile(definitionsPath)
	if err != nil {
		return err
	}

	// Parser-contents paths in the definitions document resolve relative to
	// the document itself.
	baseDir := filepath.Dir(definitionsPath)
	sess, err := session.New(session.Config{
		Definitions: defs,
		Fetch: func(path string) ([]byte, error) {
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			return os.ReadFile(path)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	frames, err := readFrames(inputPath)
	if err != nil {
		return err
	}
	logger.Info("capture loaded",
		zap.String("input", inputPath),
		zap.Int("frames", len(frames)))

	entries := sess.DecodeStream(frames)

	if outPath != "" {
		w, err := store.NewWriter()
		if err != nil {
			return err
		}
		if err := w.WriteSnapshot(outPath, sess.Registry().Digest(), entries); err != nil {
			return err
		}
		logger.Info("snapshot written",
			zap.String("out", outPath),
			zap.Int("entries", len(entries)))
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%d %-7s %s %s [%s] %s\n",
			e.Timestamp, e.Severity, e.SourceName, e.FileName, e.ThreadName, e.Message)
	}
	return nil
}

// readFrames splits a capture file into its raw frames.
func readFrames(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var frames [][]byte
	lenBuf := make([]byte, 4)
	for {
		if _, err := io.ReadFull(f, lenBuf); err != nil {
			if err == io.EOF {
				return frames, nil
			}
			return nil, fmt.Errorf("frame %d length: %w", len(frames), err)
		}
		raw := make([]byte, binary.LittleEndian.Uint32(lenBuf))
		if _, err := io.ReadFull(f, raw); err != nil {
			return nil, fmt.Errorf("frame %d body: %w", len(frames), err)
		}
		frames = append(frames, raw)
	}
}
