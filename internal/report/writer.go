package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/weatherscribe/weatherscribe/internal/apperr"
	"github.com/weatherscribe/weatherscribe/internal/media"
)

// Writer persists the document and media artifacts to the output directory
// with overwrite semantics. Every file lands via write-to-temp-then-rename,
// so a crashed run never leaves a torn file behind.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{outputDir: dir}
}

// Write stores any present media artifacts, stamps their references into
// the document, and writes the document last so it never points at files
// that do not exist yet. Absent media leaves the previous run's files
// untouched. Filesystem errors are fatal persistence errors.
func (w *Writer) Write(doc *Document, image, audio media.Outcome) error {
	const op = "report.write"

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return apperr.Wrap(apperr.Persistence, op, err)
	}

	if image.Present {
		if err := w.atomicWrite(ImageFile, image.Data); err != nil {
			return err
		}
		doc.Image = MediaRef{Present: true, File: ImageFile}
	} else {
		doc.Image = MediaRef{Present: false, Reason: image.Reason}
	}

	if audio.Present {
		if err := w.atomicWrite(AudioFile, audio.Data); err != nil {
			return err
		}
		doc.Audio = MediaRef{Present: true, File: AudioFile}
	} else {
		doc.Audio = MediaRef{Present: false, Reason: audio.Reason}
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return apperr.Wrap(apperr.Persistence, op, err)
	}
	return w.atomicWrite(DocumentFile, data)
}

// Read loads the current document back from the output directory.
func (w *Writer) Read() (*Document, error) {
	const op = "report.read"

	data, err := os.ReadFile(filepath.Join(w.outputDir, DocumentFile))
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, op, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, op, err)
	}
	return &doc, nil
}

// atomicWrite lands data at name inside the output directory. The temp
// file is created in the same directory so the rename stays on one
// filesystem.
func (w *Writer) atomicWrite(name string, data []byte) error {
	const op = "report.write"

	tmp, err := os.CreateTemp(w.outputDir, "."+name+".tmp-*")
	if err != nil {
		return apperr.Wrap(apperr.Persistence, op, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperr.Wrap(apperr.Persistence, op, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperr.Wrap(apperr.Persistence, op, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return apperr.Wrap(apperr.Persistence, op, err)
	}
	if err := os.Rename(tmpName, filepath.Join(w.outputDir, name)); err != nil {
		os.Remove(tmpName)
		return apperr.Wrap(apperr.Persistence, op, err)
	}
	return nil
}
