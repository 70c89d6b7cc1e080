package utils

import (
	"io"
	"sync"
)

// FlushingWriter forwards writes to a wrapped writer and flushes it after
// every write so progress lines appear as they are produced.
type FlushingWriter struct {
	destination io.Writer
	writeMutex  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. Writers without a Flush method
// are passed through unchanged on each write.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if _, alreadyFlushing := destination.(*FlushingWriter); alreadyFlushing {
		return destination
	}
	return &FlushingWriter{destination: destination}
}

// Write forwards the payload and flushes the destination when it supports it.
func (writer *FlushingWriter) Write(payload []byte) (int, error) {
	if writer == nil || writer.destination == nil {
		return 0, nil
	}

	writer.writeMutex.Lock()
	defer writer.writeMutex.Unlock()

	writtenBytes, writeError := writer.destination.Write(payload)
	if writeError != nil {
		return writtenBytes, writeError
	}

	flushableDestination, supportsFlush := writer.destination.(interface{ Flush() error })
	if supportsFlush {
		if flushError := flushableDestination.Flush(); flushError != nil {
			return writtenBytes, flushError
		}
	}

	return writtenBytes, nil
}
