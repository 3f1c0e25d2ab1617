package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shpandrak/shpanbind/stream"
)

// Lines creates a lazy stream over the lines of a file. The file is opened on
// each materialization, so a bound stream re-reads it on every visibility
// cycle. A missing file is an empty stream, not an error.
func Lines(filePath string) stream.Stream[string] {
	return stream.NewStream[string](&fileLinesStreamProvider{filePath: filePath})
}

type fileLinesStreamProvider struct {
	filePath              string
	file                  *os.File
	scanner               *bufio.Scanner
	fileMissingHenceEmpty bool
}

func (fsp *fileLinesStreamProvider) Open(_ context.Context) error {
	file, err := os.Open(fsp.filePath)
	if err != nil {

		// If no file, that's fine, it means the stream is empty
		if errors.Is(err, os.ErrNotExist) {
			fsp.fileMissingHenceEmpty = true
			return nil
		}
		return err
	}

	fsp.file = file
	fsp.scanner = bufio.NewScanner(file)
	return nil
}

func (fsp *fileLinesStreamProvider) Close() {
	if fsp.file != nil {

		err := fsp.file.Close()
		if err != nil {
			slog.Warn(fmt.Sprintf("error closing stream file %s: %v", fsp.filePath, err))
		}
		fsp.file = nil
		fsp.scanner = nil
	}

	// The file may appear between cycles
	fsp.fileMissingHenceEmpty = false
}

func (fsp *fileLinesStreamProvider) Emit(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if fsp.scanner == nil {
		// If we're empty, just return EOF to mark that nothing is here
		if fsp.fileMissingHenceEmpty {
			return "", io.EOF
		}

		// Otherwise, it means emit is somehow called before Open, or after Close, which is impossible, but an error
		return "", os.ErrClosed
	}

	if fsp.scanner.Scan() {
		return fsp.scanner.Text(), nil
	}
	if err := fsp.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
