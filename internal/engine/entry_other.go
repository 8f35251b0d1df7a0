//go:build !unix

package engine

import "os"

func statMetadata(path string, followSymlink bool) Metadata {
	var info os.FileInfo
	var err error
	if followSymlink {
		info, err = os.Stat(path)
	} else {
		info, err = os.Lstat(path)
	}
	if err != nil {
		return Metadata{Err: err}
	}
	return Metadata{
		Len:   info.Size(),
		Mtime: info.ModTime(),
		Mode:  info.Mode(),
	}
}

// deviceID has no portable meaning off POSIX; --one-file-system degrades to
// a no-op (every path reports the same device).
func deviceID(path string) (uint64, error) {
	return 0, nil
}
