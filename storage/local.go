package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// LocalStorage serves a table rooted at a local directory.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

func (l *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	dir := filepath.Join(l.root, filepath.FromSlash(prefix))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, prefix+"/"+entry.Name())
	}
	sort.Strings(files)

	return files, nil
}

func (l *LocalStorage) Read(ctx context.Context, fp string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(l.root, filepath.FromSlash(fp)))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fp, err)
	}
	return file, nil
}
