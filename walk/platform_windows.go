//go:build windows

// platform_windows.go - single-call directory enumeration on NTFS
//
// Licensing Terms: GPLv2

package walk

import (
	"syscall"
	"time"
)

// enumerate lists dir using a single FindFirstFile/FindNextFile sweep,
// which hands back name, attributes, and all three timestamps per entry
// in one OS call.
func enumerate(dir string) (*dirListing, error) {
	pattern := dir + `\*`
	p, err := syscall.UTF16PtrFromString(pattern)
	if err != nil {
		return nil, &Error{"enumerate", dir, err}
	}

	var data syscall.Win32finddata
	h, err := syscall.FindFirstFile(p, &data)
	if err != nil {
		return nil, &Error{"FindFirstFile", dir, err}
	}
	defer syscall.FindClose(h)

	listing := &dirListing{Modified: statDirModified(dir)}

	for {
		name := syscall.UTF16ToString(data.FileName[:])
		if name != "." && name != ".." {
			if data.FileAttributes&syscall.FILE_ATTRIBUTE_DIRECTORY != 0 {
				listing.Children = append(listing.Children, childInfo{
					Name:           name,
					IsDir:          true,
					IsReparsePoint: data.FileAttributes&syscall.FILE_ATTRIBUTE_REPARSE_POINT != 0,
					Hidden:         data.FileAttributes&syscall.FILE_ATTRIBUTE_HIDDEN != 0,
					System:         data.FileAttributes&syscall.FILE_ATTRIBUTE_SYSTEM != 0,
				})
			}
		}

		if err := syscall.FindNextFile(h, &data); err != nil {
			if err == syscall.ERROR_NO_MORE_FILES {
				break
			}
			return nil, &Error{"FindNextFile", dir, err}
		}
	}

	return listing, nil
}

// statDirModified reads the directory's own last-write time. FindFirstFile
// on the "dir\*" pattern does not report the directory's own timestamp
// (only its children's), so this is a second, cheap Win32 call against
// the directory handle itself.
func statDirModified(dir string) time.Time {
	p, err := syscall.UTF16PtrFromString(dir)
	if err != nil {
		return time.Time{}
	}

	var data syscall.Win32finddata
	h, err := syscall.FindFirstFile(p, &data)
	if err != nil {
		return time.Time{}
	}
	defer syscall.FindClose(h)

	return time.Unix(0, data.LastWriteTime.Nanoseconds())
}
