package wal

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/cuemby/graphd/pkg/graph"
)

// RecordType tags what a WAL record means; ReplayCommitted only hands
// RecordCommand records to its callback, the others mark transaction
// boundaries.
type RecordType uint8

const (
	RecordBegin   RecordType = 1
	RecordCommand RecordType = 2
	RecordCommit  RecordType = 3
	RecordAbort   RecordType = 4
)

// headerSize is record_type(1) + lsn(8) + crc32(4) + len(4).
const headerSize = 1 + 8 + 4 + 4

// Record is one decoded WAL entry.
type Record struct {
	Type    RecordType
	LSN     uint64
	Payload []byte
}

func encodeRecord(typ RecordType, lsn uint64, payload []byte) []byte {
	buf := make([]byte, headerSize+len(payload))
	buf[0] = byte(typ)
	binary.LittleEndian.PutUint64(buf[1:9], lsn)
	binary.LittleEndian.PutUint32(buf[9:13], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(buf[13:17], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	return buf
}

// decodeHeader reads the fixed header from buf (which must be at least
// headerSize long) and returns the record type, lsn, expected crc and
// payload length.
func decodeHeader(buf []byte) (typ RecordType, lsn uint64, crc uint32, length uint32) {
	typ = RecordType(buf[0])
	lsn = binary.LittleEndian.Uint64(buf[1:9])
	crc = binary.LittleEndian.Uint32(buf[9:13])
	length = binary.LittleEndian.Uint32(buf[13:17])
	return
}

func verifyChecksum(payload []byte, want uint32) error {
	if got := crc32.ChecksumIEEE(payload); got != want {
		return graph.New(graph.ErrWal, "checksum mismatch: want %x got %x", want, got)
	}
	return nil
}
