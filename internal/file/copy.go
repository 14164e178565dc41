package file

import (
	"errors"
	"fmt"
	"io"
)

const (
	_  = iota
	KB = 1 << (10 * iota)
	MB
	GB
)

// perFileReadLimit caps how much a single archive member may expand to when
// it is read into memory.
const perFileReadLimit = 2 * GB

func safeCopy(writer io.Writer, reader io.Reader) error {
	numBytes, err := io.Copy(writer, io.LimitReader(reader, perFileReadLimit))
	if numBytes >= perFileReadLimit || errors.Is(err, io.EOF) {
		return fmt.Errorf("archive member read limit hit (potential decompression bomb)")
	}
	return err
}
