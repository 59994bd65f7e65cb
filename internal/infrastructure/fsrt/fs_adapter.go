package fsrt

import "os"

// OSFileSystem is the fsbuild.FileSystem this daemon ships: it reads
// modification times straight off the local filesystem.
type OSFileSystem struct{}

func (OSFileSystem) LastModified(file string) (int64, error) {
	info, err := os.Stat(file)
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixMilli(), nil
}
