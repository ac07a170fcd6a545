// Package phantom reads and writes phantom volumes stored as flat
// whitespace-delimited text files.
package phantom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"heartslicer/internal/models"
)

// ErrSizeMismatch is returned when the number of values in a file does not
// match the declared volume size
var ErrSizeMismatch = errors.New("phantom size mismatch")

// Extension is the file extension of phantom data files
const Extension = ".dat"

// Path returns the location of the named phantom inside dir
func Path(dir, name string) string {
	return filepath.Join(dir, name+Extension)
}

// Load reads the phantom file at path and reshapes its values into a volume
// of the given size. Values are consumed in file order and laid out with
// axis 0 varying fastest.
func Load(path string, size [3]int) (*models.Volume, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open phantom: %w", err)
	}
	defer file.Close()

	vol, err := Read(file, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vol, nil
}

// Read parses whitespace-delimited values from r into a volume of the given size.
// Blank lines and everything after a '#' are ignored.
func Read(r io.Reader, size [3]int) (*models.Volume, error) {
	for axis, n := range size {
		if n <= 0 {
			return nil, fmt.Errorf("invalid size %v: axis %d must be positive", size, axis)
		}
	}

	vol := models.NewVolume(size)
	count := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		for _, field := range strings.Fields(text) {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q: %w", line, field, err)
			}
			if count >= len(vol.Data) {
				return nil, fmt.Errorf("%w: more than %d values for size %v", ErrSizeMismatch, len(vol.Data), size)
			}
			vol.Data[count] = value
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading phantom: %w", err)
	}

	if count != len(vol.Data) {
		return nil, fmt.Errorf("%w: got %d values, size %v needs %d", ErrSizeMismatch, count, size, len(vol.Data))
	}
	return vol, nil
}

// Save writes the volume to path as one value per line, in the order Load reads them
func Save(path string, vol *models.Volume) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating phantom directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := Write(file, vol); err != nil {
		return err
	}
	return file.Close()
}

// Write encodes the volume values one per line
func Write(w io.Writer, vol *models.Volume) error {
	bw := bufio.NewWriter(w)
	for _, value := range vol.Data {
		if _, err := bw.WriteString(strconv.FormatFloat(value, 'g', -1, 64)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
