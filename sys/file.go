package sys

import (
	"io"
	"os"
	"sync/atomic"
)

// fileWrapper is a stable concrete type used to store the File interface
// inside an atomic.Value, which requires one concrete type across stores.
type fileWrapper struct {
	f File
}

var defaultFile atomic.Value // stores fileWrapper
var debugMode atomic.Bool

// File opens files. It is swapped out in tests to observe or fail opens.
type File interface {
	Create(name string) (*os.File, error)
	Open(name string) (*os.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
}

// FileHandle is the subset of *os.File the storage code relies on.
type FileHandle interface {
	io.ReadWriteCloser
	io.ReaderAt
	io.Seeker

	Stat() (os.FileInfo, error)
	Sync() error
	Name() string
	Fd() uintptr
}

type CreateHandler func(name string) (FileHandle, error)
type OpenHandler func(name string) (FileHandle, error)

func init() {
	defaultFile.Store(fileWrapper{f: NewFile()})
}

// SetDefaultFile replaces the File used by Open and Create.
func SetDefaultFile(file File) {
	defaultFile.Store(fileWrapper{f: file})
}

// SetDebugMode makes Open and Create return handles that log their lifecycle
// and are tracked by OpenDebugHandles.
func SetDebugMode(mode bool) {
	debugMode.Store(mode)
}

func loadFile() (File, error) {
	fw, ok := defaultFile.Load().(fileWrapper)
	if !ok || fw.f == nil {
		return nil, os.ErrInvalid
	}
	return fw.f, nil
}

var Create CreateHandler = func(name string) (FileHandle, error) {
	file, err := loadFile()
	if err != nil {
		return nil, err
	}
	if debugMode.Load() {
		return DOpenFile(file, name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	}
	return ROpenFile(file, name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

var Open OpenHandler = func(name string) (FileHandle, error) {
	file, err := loadFile()
	if err != nil {
		return nil, err
	}
	if debugMode.Load() {
		return DOpenFile(file, name, os.O_RDONLY, 0)
	}
	return ROpenFile(file, name, os.O_RDONLY, 0)
}

// osFile implements File with plain os calls.
type osFile struct{}

// NewFile returns the default File implementation.
func NewFile() File {
	return osFile{}
}

func (osFile) Create(name string) (*os.File, error) {
	return os.Create(name)
}

func (osFile) Open(name string) (*os.File, error) {
	return os.Open(name)
}

func (osFile) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}
