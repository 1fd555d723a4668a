package sys

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var _ FileHandle = (*DebugFile)(nil)
var nextID atomic.Uint64

var listFD = new(sync.Map)

// DebugFile wraps an *os.File, logs open/close at debug level and registers
// itself in a process-wide table until closed.
type DebugFile struct {
	id     uint64
	f      *os.File
	logger *slog.Logger
	closed atomic.Bool
}

func DOpenFile(sysFile File, name string, flag int, perm os.FileMode) (FileHandle, error) {
	f, err := sysFile.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	id := nextID.Add(1)
	logger := slog.Default().With("component", "DebugFile", "id", id, "file_name", name)
	logger.Debug("Opening file")
	listFD.Store(id, f.Name())

	return &DebugFile{id: id, f: f, logger: logger}, nil
}

// OpenDebugHandles returns the names of debug handles that are still open.
func OpenDebugHandles() []string {
	var names []string
	listFD.Range(func(_, v any) bool {
		names = append(names, v.(string))
		return true
	})
	return names
}

func (df *DebugFile) Write(p []byte) (n int, err error) {
	return df.f.Write(p)
}

func (df *DebugFile) Read(p []byte) (n int, err error) {
	return df.f.Read(p)
}

func (df *DebugFile) ReadAt(p []byte, off int64) (n int, err error) {
	return df.f.ReadAt(p, off)
}

func (df *DebugFile) Seek(offset int64, whence int) (int64, error) {
	df.logger.Debug("Seek", "offset", offset, "whence", whence)
	return df.f.Seek(offset, whence)
}

func (df *DebugFile) Stat() (os.FileInfo, error) {
	return df.f.Stat()
}

func (df *DebugFile) Sync() error {
	return df.f.Sync()
}

func (df *DebugFile) Name() string {
	return df.f.Name()
}

func (df *DebugFile) Fd() uintptr {
	return df.f.Fd()
}

func (df *DebugFile) Close() error {
	if df.closed.CompareAndSwap(false, true) {
		listFD.Delete(df.id)
		df.logger.Debug("Closing file")
	}
	return df.f.Close()
}
