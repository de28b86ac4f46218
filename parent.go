package reactor

import (
	"os"
	"path/filepath"
)

// ResolveParentDir returns the directory holding the descriptor of childDir's parent project, as
// located by the parent reference's relative path:
//
//   - [RelativePathDefault]: the conventional "../<descriptor>", i.e. the parent directory.
//   - [RelativePathExplicit]: the given path, relative to childDir.  It may name a directory or a
//     descriptor file.
//   - [RelativePathSuppressed]: never local.  The parent must be resolved by other means.
//
// The bool is false if the parent is not locally present, including when the located directory
// has no descriptor.
func ResolveParentDir(childDir string, parent *ParentRef, provider DescriptorProvider) (string, bool) {
	if parent == nil {
		return "", false
	}
	var dir string
	switch rp := parent.RelativePath; rp.Kind() {
	case RelativePathSuppressed:
		return "", false
	case RelativePathDefault:
		dir = filepath.Dir(childDir)
		if dir == childDir {
			return "", false
		}
	case RelativePathExplicit:
		dir = filepath.Join(childDir, filepath.FromSlash(rp.Path()))
		if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
			if filepath.Base(dir) != provider.DescriptorName() {
				return "", false
			}
			dir = filepath.Dir(dir)
		}
	default:
		return "", false
	}
	if !provider.HasDescriptor(dir) {
		return "", false
	}
	return dir, true
}
