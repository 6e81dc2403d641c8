package blob

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"

	"github.com/signadot/graphstore/array"
)

// Entry layout, all integers little-endian:
//
//	0x00  magic "GSBL"
//	0x04  uint32 version
//	0x08  uint64 header length
//	0x10  uint64 data length
//	0x18  [32]byte SHA-256 of the data
//	0x38  reserved
//	0x40  JSON header
//	      data, starting at the next multiple of 64
const (
	MagicBytes      = "GSBL"
	FormatVersion   = 1
	FixedHeaderSize = 64
	ChecksumOffset  = 0x18
	ChecksumSize    = 32
	MaxHeaderSize   = 1 << 20
	dataAlign       = 64
	entryExt        = ".blob"
	tmpExt          = ".tmp"
)

type entryHeader struct {
	DType string `json:"dtype"`
	Shape []int  `json:"shape"`
}

type entryLayout struct {
	header     entryHeader
	dataOffset int64
	dataSize   int64
	checksum   [32]byte
}

func align(n int64) int64 {
	return (n + dataAlign - 1) / dataAlign * dataAlign
}

// encodePrefix returns everything before the data of a's entry,
// including the alignment padding.
func encodePrefix(a *array.Dense) ([]byte, error) {
	hdr, err := json.Marshal(entryHeader{DType: a.DType().String(), Shape: []int(a.Shape())})
	if err != nil {
		return nil, err
	}
	data := a.Bytes()
	dataOffset := align(FixedHeaderSize + int64(len(hdr)))
	buf := make([]byte, dataOffset)
	copy(buf, MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(hdr)))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(len(data)))
	sum := sha256.Sum256(data)
	copy(buf[ChecksumOffset:ChecksumOffset+ChecksumSize], sum[:])
	copy(buf[FixedHeaderSize:], hdr)
	return buf, nil
}

// parseLayout reads the fixed and JSON headers of an entry of size bytes.
// b holds at least the headers.
func parseLayout(id string, b []byte, size int64) (*entryLayout, error) {
	if len(b) < FixedHeaderSize {
		return nil, &FormatError{ID: id, Details: "entry too small"}
	}
	if !bytes.Equal(b[:4], []byte(MagicBytes)) {
		return nil, &FormatError{ID: id, Details: "bad header", Err: ErrInvalidMagic}
	}
	if v := binary.LittleEndian.Uint32(b[4:8]); v != FormatVersion {
		return nil, &FormatError{ID: id, Details: "bad header", Err: ErrUnsupportedVersion}
	}
	hdrLen := binary.LittleEndian.Uint64(b[8:16])
	dataLen := binary.LittleEndian.Uint64(b[16:24])
	if hdrLen > MaxHeaderSize {
		return nil, &FormatError{ID: id, Details: "header too large"}
	}
	hdrEnd := FixedHeaderSize + int64(hdrLen)
	if hdrEnd > int64(len(b)) {
		return nil, &FormatError{ID: id, Details: "header extends beyond entry"}
	}
	l := &entryLayout{dataOffset: align(hdrEnd)}
	if dataLen > uint64(size) || l.dataOffset+int64(dataLen) > size {
		return nil, &FormatError{ID: id, Details: "data extends beyond entry"}
	}
	l.dataSize = int64(dataLen)
	copy(l.checksum[:], b[ChecksumOffset:ChecksumOffset+ChecksumSize])
	if err := json.Unmarshal(b[FixedHeaderSize:hdrEnd], &l.header); err != nil {
		return nil, &FormatError{ID: id, Details: "invalid header json", Err: err}
	}
	dt, err := array.ParseDType(l.header.DType)
	if err != nil {
		return nil, &FormatError{ID: id, Details: "invalid header", Err: err}
	}
	shape := array.Shape(l.header.Shape)
	if err := shape.Validate(); err != nil {
		return nil, &FormatError{ID: id, Details: "invalid header", Err: err}
	}
	if int64(shape.NumElements()*dt.Size()) != l.dataSize {
		return nil, &FormatError{ID: id, Details: "data length does not match shape"}
	}
	return l, nil
}

func (l *entryLayout) dtype() array.DType {
	dt, _ := array.ParseDType(l.header.DType)
	return dt
}

func (l *entryLayout) data(b []byte) []byte {
	return b[l.dataOffset : l.dataOffset+l.dataSize]
}
