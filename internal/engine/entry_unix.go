//go:build unix

package engine

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

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
	md := Metadata{
		Len:   info.Size(),
		Mtime: info.ModTime(),
		Mode:  info.Mode(),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		md.Uid = st.Uid
		md.Gid = st.Gid
	}
	return md
}

// deviceID returns the st_dev of path via the POSIX stat(2) wrapper from
// x/sys/unix, used by --one-file-system to detect mount-point crossings
// without relying on the (deprecated for this use) syscall package.
func deviceID(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Dev), nil
}
