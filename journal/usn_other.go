//go:build !windows

// usn_other.go - USN journal stand-in for non-NTFS builds
//
// Licensing Terms: GPLv2
//
// The USN journal is an NTFS-specific facility; off Windows there is no
// analogue to query, so this is a platform stub that always reports the
// feature unavailable rather than failing to compile.

package journal

func openVolumeJournal(volume string) (*volumeJournal, error) {
	return nil, &Error{"open-volume", volume, ErrUnavailable}
}
