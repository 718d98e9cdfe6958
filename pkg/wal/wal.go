package wal

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/cuemby/graphd/pkg/graph"
)

// WAL is an append-only sequence of length-prefixed, checksummed
// records backing one write-transaction stream at a time (graphd is
// single-writer, so there is never contention over lsn allocation).
type WAL struct {
	mu      sync.Mutex
	file    *os.File
	nextLSN uint64
}

// Open opens (creating if absent) the WAL file at path, positioned for
// appending after whatever it already contains. Callers that need to
// recover first call Replay before issuing any new Append.
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, graph.Wrap(graph.ErrWal, err, "open wal %s", path)
	}
	return &WAL{file: file, nextLSN: 1}, nil
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return graph.Wrap(graph.ErrIo, w.file.Close(), "close wal file")
}

func (w *WAL) append(typ RecordType, payload []byte, fsync bool) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lsn := w.nextLSN
	w.nextLSN++

	buf := encodeRecord(typ, lsn, payload)
	if _, err := w.file.Write(buf); err != nil {
		return 0, graph.Wrap(graph.ErrWal, err, "append wal record lsn=%d", lsn)
	}
	if fsync {
		if err := w.file.Sync(); err != nil {
			return 0, graph.Wrap(graph.ErrWal, err, "fsync wal after lsn=%d", lsn)
		}
	}
	return lsn, nil
}

// WriteBegin marks the start of a write transaction. Not fsynced: if
// the process crashes before Commit, the transaction never happened as
// far as recovery is concerned.
func (w *WAL) WriteBegin() (uint64, error) {
	return w.append(RecordBegin, nil, false)
}

// WriteCommand appends one mutation's Command payload, already
// marshaled to JSON by the caller (see ops.go).
func (w *WAL) WriteCommand(payload []byte) (uint64, error) {
	return w.append(RecordCommand, payload, false)
}

// WriteCommit appends a Commit record and fsyncs, making every record
// written since the matching WriteBegin durable.
func (w *WAL) WriteCommit() (uint64, error) {
	return w.append(RecordCommit, nil, true)
}

// WriteAbort appends an Abort record and fsyncs, so recovery knows to
// discard every Command since the matching WriteBegin.
func (w *WAL) WriteAbort() (uint64, error) {
	return w.append(RecordAbort, nil, true)
}

// Replay reads every record in the WAL file from the start and invokes
// fn for each. It is the caller's job (ReplayCommitted, for pkg/txn's
// Redo) to group records by transaction and ignore ones belonging to a
// transaction that never reached Commit.
func Replay(path string, fn func(Record) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return graph.Wrap(graph.ErrWal, err, "open wal %s for replay", path)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	header := make([]byte, headerSize)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				return nil
			}
			if err == io.ErrUnexpectedEOF {
				// Torn trailing record from a crash mid-append; recovery
				// stops at the last complete record.
				return nil
			}
			return graph.Wrap(graph.ErrWal, err, "read wal header")
		}
		typ, lsn, crc, length := decodeHeader(header)

		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return graph.Wrap(graph.ErrWal, err, "read wal payload lsn=%d", lsn)
		}
		if err := verifyChecksum(payload, crc); err != nil {
			return err
		}
		if err := fn(Record{Type: typ, LSN: lsn, Payload: payload}); err != nil {
			return err
		}
	}
}

// ReplayCommitted reads path and invokes apply once per Command record
// that belongs to a transaction which reached a Commit record, in
// order, skipping any transaction left dangling (no terminating Commit
// or Abort) at end of file — an incomplete transaction from a crash
// mid-write is treated the same as Abort.
func ReplayCommitted(path string, apply func(Record) error) error {
	var pending []Record
	return Replay(path, func(rec Record) error {
		switch rec.Type {
		case RecordBegin:
			pending = pending[:0]
		case RecordCommand:
			pending = append(pending, rec)
		case RecordCommit:
			for _, p := range pending {
				if err := apply(p); err != nil {
					return err
				}
			}
			pending = pending[:0]
		case RecordAbort:
			pending = pending[:0]
		}
		return nil
	})
}
