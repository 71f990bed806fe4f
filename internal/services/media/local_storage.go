package media

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage keeps uploaded files on disk under a single content root
// and serves them back through a static route. Filenames are prefixed
// with a millisecond timestamp so concurrent uploads of the same file
// never collide.
type LocalStorage struct {
	root       string
	publicPath string
	now        func() time.Time
}

type SavedFile struct {
	Filename string
	Path     string
	Size     int64
}

const scratchDirName = "frames"

func NewLocalStorage(root, publicPath string) (*LocalStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("media root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, scratchDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}

	if publicPath == "" {
		publicPath = "/uploads"
	}

	return &LocalStorage{
		root:       root,
		publicPath: publicPath,
		now:        time.Now,
	}, nil
}

func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) ScratchRoot() string {
	return filepath.Join(s.root, scratchDirName)
}

// Save streams body to disk as "<unix-millis>-<original-name>".
func (s *LocalStorage) Save(originalName string, body io.Reader) (SavedFile, error) {
	if body == nil {
		return SavedFile{}, ErrValidation
	}

	filename := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeName(originalName))
	target := filepath.Join(s.root, filename)

	out, err := os.Create(target)
	if err != nil {
		return SavedFile{}, fmt.Errorf("create media file: %w", err)
	}

	size, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return SavedFile{}, fmt.Errorf("write media file: %w", err)
	}

	return SavedFile{Filename: filename, Path: target, Size: size}, nil
}

// SaveFrame copies an extracted scratch frame into the content root as
// "frame-<unix-millis>-<index>.jpg" so it survives scratch cleanup.
func (s *LocalStorage) SaveFrame(sourcePath string, index int) (SavedFile, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return SavedFile{}, fmt.Errorf("open frame: %w", err)
	}
	defer src.Close()

	filename := fmt.Sprintf("frame-%d-%d.jpg", s.now().UnixMilli(), index)
	target := filepath.Join(s.root, filename)

	out, err := os.Create(target)
	if err != nil {
		return SavedFile{}, fmt.Errorf("create frame file: %w", err)
	}

	size, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return SavedFile{}, fmt.Errorf("write frame file: %w", err)
	}

	return SavedFile{Filename: filename, Path: target, Size: size}, nil
}

// NewScratchDir creates a private working directory for one extraction
// run. Callers are expected to remove it when done.
func (s *LocalStorage) NewScratchDir() (string, error) {
	dir := filepath.Join(s.ScratchRoot(), uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *LocalStorage) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.Base(filename)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

func (s *LocalStorage) FilePath(filename string) string {
	return filepath.Join(s.root, filepath.Base(filename))
}

func (s *LocalStorage) URL(filename string) string {
	return path.Join(s.publicPath, filepath.Base(filename))
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
