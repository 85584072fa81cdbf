//go:build windows

// usn_windows.go - live USN journal access
//
// Licensing Terms: GPLv2
//
// Opens a volume handle and drives FSCTL_QUERY_USN_JOURNAL /
// FSCTL_READ_USN_JOURNAL, in the manner mutagen-io/mutagen's
// pkg/filesystem/open_windows.go opens paths: CreateFile with
// FILE_FLAG_BACKUP_SEMANTICS (required to open a volume or directory
// handle at all) and UTF-16 path conversion via golang.org/x/sys/windows.

package journal

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	fsctlQueryUSNJournal = 0x000900F4
	fsctlReadUSNJournal  = 0x000900BB
)

// usnQueryJournalData mirrors USN_JOURNAL_DATA_V0.
type usnQueryJournalData struct {
	UsnJournalID uint64
	FirstUsn     int64
	NextUsn      int64
	LowestValid  int64
	MaxUsn       int64
	MaxSize      uint64
	AllocDelta   uint64
}

// usnReadJournalData mirrors READ_USN_JOURNAL_DATA_V0.
type usnReadJournalData struct {
	StartUsn          int64
	ReasonMask        uint32
	ReturnOnlyOnClose uint32
	Timeout           uint64
	BytesToWaitFor    uint64
	UsnJournalID      uint64
}

// openVolumeJournal opens volume (e.g. `\\.\C:`) and returns a
// volumeJournal backed by live DeviceIoControl calls.
func openVolumeJournal(volume string) (*volumeJournal, error) {
	path16, err := windows.UTF16PtrFromString(volume)
	if err != nil {
		return nil, &Error{"open-volume", volume, err}
	}

	handle, err := windows.CreateFile(
		path16,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return nil, &Error{"open-volume", volume, err}
	}

	return &volumeJournal{
		query: func() (uint64, int64, int64, error) {
			var data usnQueryJournalData
			var n uint32
			if err := windows.DeviceIoControl(
				handle, fsctlQueryUSNJournal, nil, 0,
				(*byte)(unsafe.Pointer(&data)), uint32(unsafe.Sizeof(data)),
				&n, nil,
			); err != nil {
				return 0, 0, 0, &Error{"query-journal", volume, err}
			}
			return data.UsnJournalID, data.FirstUsn, data.NextUsn, nil
		},
		read: func(startUSN int64) ([]rawRecord, int64, error) {
			var jd usnQueryJournalData
			var n uint32
			if err := windows.DeviceIoControl(
				handle, fsctlQueryUSNJournal, nil, 0,
				(*byte)(unsafe.Pointer(&jd)), uint32(unsafe.Sizeof(jd)),
				&n, nil,
			); err != nil {
				return nil, 0, &Error{"query-journal", volume, err}
			}

			in := usnReadJournalData{
				StartUsn:     startUSN,
				ReasonMask:   0xFFFFFFFF,
				UsnJournalID: jd.UsnJournalID,
			}

			out := make([]byte, readBufferSize)
			var got uint32
			if err := windows.DeviceIoControl(
				handle, fsctlReadUSNJournal,
				(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
				&out[0], uint32(len(out)), &got, nil,
			); err != nil {
				return nil, 0, &Error{"read-journal", volume, err}
			}
			if got < 8 {
				return nil, startUSN, nil
			}

			cursor := int64(binary.LittleEndian.Uint64(out[:8]))
			records, err := parseUSNRecords(out[8:got])
			if err != nil {
				return nil, 0, err
			}
			return records, cursor, nil
		},
	}, nil
}

// parseUSNRecords decodes a buffer of back-to-back USN_RECORD_V2
// structures.
func parseUSNRecords(buf []byte) ([]rawRecord, error) {
	var out []rawRecord

	for len(buf) > 0 {
		if len(buf) < 4 {
			break
		}
		recLen := binary.LittleEndian.Uint32(buf[0:4])
		if recLen == 0 || int(recLen) > len(buf) {
			return nil, fmt.Errorf("%w: record length %d exceeds buffer", errParse, recLen)
		}
		rec := buf[:recLen]
		r, err := parseOneRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		buf = buf[recLen:]
	}
	return out, nil
}

// USN_RECORD_V2 fixed-header field offsets.
const (
	offFileRef    = 8
	offParentRef  = 16
	offUsn        = 24
	offTimestamp  = 32
	offReason     = 40
	offFileAttrs  = 52
	offNameLen    = 56
	offNameOffset = 58
)

func parseOneRecord(rec []byte) (rawRecord, error) {
	if len(rec) < int(offNameOffset)+2 {
		return rawRecord{}, fmt.Errorf("%w: record too short (%d bytes)", errParse, len(rec))
	}

	nameLen := binary.LittleEndian.Uint16(rec[offNameLen:])
	nameOff := binary.LittleEndian.Uint16(rec[offNameOffset:])
	if nameLen%2 != 0 {
		return rawRecord{}, fmt.Errorf("%w: odd-length name (%d bytes)", errParse, nameLen)
	}
	if int(nameOff)+int(nameLen) > len(rec) {
		return rawRecord{}, fmt.Errorf("%w: name extends past record", errParse)
	}

	nameBytes := rec[nameOff : nameOff+nameLen]
	units := make([]uint16, nameLen/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(nameBytes[i*2:])
	}
	name := string(utf16.Decode(units)) // lossy: invalid code units become U+FFFD

	attrs := binary.LittleEndian.Uint32(rec[offFileAttrs:])

	return rawRecord{
		FileRef:      FileRef(binary.LittleEndian.Uint64(rec[offFileRef:])),
		ParentRef:    FileRef(binary.LittleEndian.Uint64(rec[offParentRef:])),
		USN:          int64(binary.LittleEndian.Uint64(rec[offUsn:])),
		Reason:       binary.LittleEndian.Uint32(rec[offReason:]),
		RawTimestamp: int64(binary.LittleEndian.Uint64(rec[offTimestamp:])),
		Name:         name,
		IsDir:        attrs&windows.FILE_ATTRIBUTE_DIRECTORY != 0,
	}, nil
}
