package util

import (
	"image"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-pose/models/model/preprocess"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the position of the file in playback order, starting at 0.
	Frame int
}

// Decode decodes the file contents.
func (f ImageFile) Decode() (image.Image, error) {
	img, _, err := preprocess.DecodeImage(f.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.Path)
	}
	return img, nil
}

var trailingNumber = regexp.MustCompile(`(\d+)$`)

// sequenceNumber returns the number a file name ends with, e.g. 12 for "frame-0012.jpg".
func sequenceNumber(name string) (int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := trailingNumber.FindString(stem)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

// LoadDirectoryImageFiles reads all image files from a directory in playback order.
//
// Files whose names end in a number ("frame-0012.jpg", "img7.png") are ordered by that number and
// come first; the rest follow in name order.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
//   - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}

	type entry struct {
		name     string
		number   int
		numbered bool
	}

	var entries []entry
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(file.Name())) {
		case ".jpg", ".jpeg", ".png":
			n, ok := sequenceNumber(file.Name())
			entries = append(entries, entry{name: file.Name(), number: n, numbered: ok})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.numbered != b.numbered {
			return a.numbered
		}
		if a.numbered && a.number != b.number {
			return a.number < b.number
		}
		return a.name < b.name
	})

	images := make([]ImageFile, 0, len(entries))
	for i, e := range entries {
		imgPath := filepath.Join(dir, e.name)
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", imgPath)
		}
		images = append(images, ImageFile{
			Path:  imgPath,
			Data:  data,
			Frame: i,
		})
	}

	return images, nil
}
