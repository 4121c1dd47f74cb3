package fileutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/option/content"
	"github.com/viant/afs/storage"
	_ "github.com/viant/afsc/s3"
)

var fileSystem = afs.New()

func ReadFileBytes(ctx context.Context, filename string) ([]byte, error) {
	file, err := fileSystem.OpenURL(ctx, filename)
	if err != nil {
		return nil, err
	}
	return readAndClose(file)
}

// readAndClose reads r to the end and closes it. A close error is returned
// even when the read succeeded.
func readAndClose(r io.ReadCloser) (b []byte, err error) {
	defer func() {
		err = errors.Join(err, CloseFile(r))
	}()

	buf := &bytes.Buffer{}
	if _, err = io.Copy(buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func CloseFile(file io.Closer) error {
	return file.Close()
}

func GetPathType(path string) string {
	if strings.HasPrefix(path, "s3://") {
		return "S3"
	}
	return "os"
}

// IsAbs reports whether path needs no base directory: absolute OS paths and
// object store URLs.
func IsAbs(path string) bool {
	return GetPathType(path) != "os" || filepath.IsAbs(path)
}

// ResolvePath joins a relative path onto basePath and returns an absolute
// path. Absolute paths and s3 URLs are returned cleaned but otherwise as given.
func ResolvePath(basePath, path string) (string, error) {
	if IsAbs(path) {
		if GetPathType(path) == "os" {
			return filepath.Clean(path), nil
		}
		return path, nil
	}
	joined := PathJoinSafe(basePath, path)
	if GetPathType(joined) != "os" {
		return joined, nil
	}
	return filepath.Abs(joined)
}

// PathJoinSafe wrapper around filepath.Join to ensure that paths are correctly constructed
// if the path is a normal OS path, just use filepath.Join
// if the path is S3, trim any trailing slashes and construct it manually from the components
// so that double slashes (e.g. s3://) are preserved.
func PathJoinSafe(elem ...string) string {
	var path string

	switch GetPathType(elem[0]) {
	case "S3":
		basePath := strings.TrimSuffix(elem[0], "/")
		path = basePath + string(filepath.Separator) + filepath.Join(elem[1:]...)
	default:
		path = filepath.Join(elem...)
	}
	return path
}

func WalkDir() func(ctx context.Context, URL string, handler storage.OnVisit, options ...storage.Option) error {
	return fileSystem.Walk
}

// CreateFile creates fileName, or a directory of that name when isDir is set.
func CreateFile(ctx context.Context, fileName string, isDir bool) error {
	return fileSystem.Create(ctx, fileName, os.ModePerm, isDir)
}

func FileExists(ctx context.Context, filename string) (bool, error) {
	return fileSystem.Exists(ctx, filename)
}

func NewFileWriter(ctx context.Context, filename string, contentType string) (io.WriteCloser, error) {
	exists, err := FileExists(ctx, filename)
	if err != nil {
		return nil, err
	}
	if exists {
		err = fileSystem.Delete(ctx, filename)
		if err != nil {
			return nil, err
		}
	}
	if contentType != "" {
		return fileSystem.NewWriter(ctx, filename, 0o644, content.NewMeta(content.Type, contentType), option.NewSkipChecksum(true))
	}
	return fileSystem.NewWriter(ctx, filename, 0o644, option.NewSkipChecksum(true))
}
