package sftpc

import (
	"os"
	"path"

	"github.com/kr/fs"
)

// Walk returns a Walker that traverses the remote tree rooted at root,
// in lexical order, calling Lstat and ReadDir as it goes.
func (s *Session) Walk(root string) *fs.Walker {
	return fs.WalkFS(root, s)
}

// ReadDir lists dirname for the Walker, dropping the dot entries.
func (s *Session) ReadDir(dirname string) ([]os.FileInfo, error) {
	entries, err := s.ReadDirAll(dirname)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.Filename == "." || e.Filename == ".." {
			continue
		}

		infos = append(infos, fileInfoFromEntry(e, s.version))
	}

	return infos, nil
}

// Lstat implements the Walker's stat without following symlinks.
func (s *Session) Lstat(p string) (os.FileInfo, error) {
	attrs, err := s.LStat(p)
	if err != nil {
		return nil, err
	}

	return &fileInfo{name: path.Base(p), attrs: attrs, version: s.version}, nil
}

// Join joins path elements for the Walker.
func (s *Session) Join(elem ...string) string {
	return path.Join(elem...)
}
