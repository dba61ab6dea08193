package pkg

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

// The .kva format bundles the collected static assets into a single
// brotli-compressed file shipped next to the packaged binary. Layout:
// a 16 byte header (magic, format version, index offset, entry count),
// the compressed file blobs, and a trailing directory index. Directory
// entries carry zeroed offsets; a ".." entry closes the directory.

const kvaVersion = 1

var kvaMagic = [4]byte{'K', 'V', 'A', 'R'}

type kvaFile struct {
	offset  int32
	size    int32
	decSize int32
}

type kvaFolder struct {
	folders map[string]*kvaFolder
	files   map[string]*kvaFile
}

func newKvaFolder() *kvaFolder {
	return &kvaFolder{
		folders: map[string]*kvaFolder{},
		files:   map[string]*kvaFile{},
	}
}

// KvaWriter writes .kva asset archives.
type KvaWriter struct {
	hdl      *os.File
	root     *kvaFolder
	dirStack []*kvaFolder
	current  *kvaFolder
	buffer   []byte
}

// NewKvaWriter creates a new KvaWriter instance and opens it for writing
func NewKvaWriter(filename string) (*KvaWriter, error) {
	hdl, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	root := newKvaFolder()
	dirStack := make([]*kvaFolder, 1)
	dirStack[0] = root

	// skip the header which consists of 4 chars and 3 int32s
	_, err = hdl.Seek(int64(4+12), io.SeekStart)
	if err != nil {
		hdl.Close()
		return nil, err
	}

	return &KvaWriter{
		hdl:      hdl,
		root:     root,
		dirStack: dirStack,
		current:  root,
		buffer:   make([]byte, 4096),
	}, nil
}

// OpenDirectory creates a new directory entry. Anything created until the next
// CloseDirectory() call will be created inside this directory.
func (w *KvaWriter) OpenDirectory(dirname string) error {
	dir := newKvaFolder()

	w.current.folders[dirname] = dir
	w.dirStack = append(w.dirStack, dir)
	w.current = dir

	return nil
}

// CloseDirectory closes the directory that was last opened
func (w *KvaWriter) CloseDirectory() error {
	stackLen := len(w.dirStack)
	if stackLen < 2 {
		return eris.New("No directory left on stack")
	}

	w.dirStack = w.dirStack[:stackLen-1]
	w.current = w.dirStack[stackLen-2]
	return nil
}

// WriteFile creates a new file in the current archive directory
func (w *KvaWriter) WriteFile(filename string, reader io.Reader) error {
	item := new(kvaFile)
	offset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	item.offset = int32(offset)
	brw := brotli.NewWriterLevel(w.hdl, brotli.BestCompression)

	decSize, err := io.CopyBuffer(brw, reader, w.buffer)
	if err != nil {
		return err
	}

	err = brw.Close()
	if err != nil {
		return err
	}

	newPos, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	item.size = int32(newPos - offset)
	item.decSize = int32(decSize)
	w.current.files[filename] = item

	return nil
}

// Close writes the central index and closes the archive
func (w *KvaWriter) Close() error {
	if len(w.dirStack) != 1 {
		w.hdl.Close()
		return eris.New("Open directories left over!")
	}

	items := int32(0)
	buffer := make([]byte, 48)
	tocOffset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		w.hdl.Close()
		return err
	}
	err = writeDirectoryEntries(w.root, w.hdl, &items, buffer)
	if err != nil {
		w.hdl.Close()
		return err
	}

	_, err = w.hdl.Seek(0, io.SeekStart)
	if err != nil {
		w.hdl.Close()
		return err
	}

	copy(buffer[:4], kvaMagic[:])
	binary.LittleEndian.PutUint32(buffer[4:8], kvaVersion)
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(tocOffset))
	binary.LittleEndian.PutUint32(buffer[12:16], uint32(items))

	_, err = w.hdl.Write(buffer[:16])
	if err != nil {
		w.hdl.Close()
		return err
	}
	return w.hdl.Close()
}

func writeEntry(hdl *os.File, buffer []byte, offset, size, decSize int32, name string) error {
	binary.LittleEndian.PutUint32(buffer[:4], uint32(offset))
	binary.LittleEndian.PutUint32(buffer[4:8], uint32(size))
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(decSize))
	binary.LittleEndian.PutUint16(buffer[12:14], uint16(len(name)))
	_, err := hdl.Write(buffer[:14])
	if err != nil {
		return err
	}

	_, err = hdl.WriteString(name)
	return err
}

func writeDirectoryEntries(folder *kvaFolder, hdl *os.File, items *int32, buffer []byte) error {
	for name, sub := range folder.folders {
		err := writeEntry(hdl, buffer, 0, 0, 0, name)
		if err != nil {
			return err
		}

		err = writeDirectoryEntries(sub, hdl, items, buffer)
		if err != nil {
			return err
		}

		err = writeEntry(hdl, buffer, 0, 0, 0, "..")
		if err != nil {
			return err
		}
	}

	for name, file := range folder.files {
		err := writeEntry(hdl, buffer, file.offset, file.size, file.decSize, name)
		if err != nil {
			return err
		}
	}

	*items += int32(len(folder.folders)*2 + len(folder.files))
	return nil
}

// KvaEntry describes a single file stored in a .kva archive.
type KvaEntry struct {
	Path    string
	Size    int32
	DecSize int32

	offset int32
}

// KvaReader reads .kva asset archives.
type KvaReader struct {
	hdl     *os.File
	entries map[string]KvaEntry
}

// OpenKva opens the given archive and parses its index.
func OpenKva(filename string) (*KvaReader, error) {
	hdl, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 16)
	_, err = io.ReadFull(hdl, header)
	if err != nil {
		hdl.Close()
		return nil, eris.Wrap(err, "failed to read archive header")
	}

	if !bytes.Equal(header[:4], kvaMagic[:]) {
		hdl.Close()
		return nil, eris.Errorf("%s is not a .kva archive", filename)
	}

	if version := binary.LittleEndian.Uint32(header[4:8]); version != kvaVersion {
		hdl.Close()
		return nil, eris.Errorf("unsupported archive version %d", version)
	}

	tocOffset := binary.LittleEndian.Uint32(header[8:12])
	items := binary.LittleEndian.Uint32(header[12:16])

	_, err = hdl.Seek(int64(tocOffset), io.SeekStart)
	if err != nil {
		hdl.Close()
		return nil, err
	}

	reader := &KvaReader{
		hdl:     hdl,
		entries: make(map[string]KvaEntry, items),
	}

	buffer := make([]byte, 14)
	dirStack := make([]string, 0)
	for idx := uint32(0); idx < items; idx++ {
		_, err = io.ReadFull(hdl, buffer)
		if err != nil {
			hdl.Close()
			return nil, eris.Wrap(err, "failed to read index entry")
		}

		offset := int32(binary.LittleEndian.Uint32(buffer[:4]))
		size := int32(binary.LittleEndian.Uint32(buffer[4:8]))
		decSize := int32(binary.LittleEndian.Uint32(buffer[8:12]))
		nameLen := binary.LittleEndian.Uint16(buffer[12:14])

		name := make([]byte, nameLen)
		_, err = io.ReadFull(hdl, name)
		if err != nil {
			hdl.Close()
			return nil, eris.Wrap(err, "failed to read index entry name")
		}

		if offset == 0 && size == 0 {
			if string(name) == ".." {
				if len(dirStack) == 0 {
					hdl.Close()
					return nil, eris.New("malformed index: unbalanced directory entries")
				}
				dirStack = dirStack[:len(dirStack)-1]
			} else {
				dirStack = append(dirStack, string(name))
			}
			continue
		}

		entryPath := path.Join(append(append([]string{}, dirStack...), string(name))...)
		reader.entries[entryPath] = KvaEntry{
			Path:    entryPath,
			Size:    size,
			DecSize: decSize,
			offset:  offset,
		}
	}

	return reader, nil
}

// Entries lists all files contained in the archive, keyed by their
// slash-separated path.
func (r *KvaReader) Entries() map[string]KvaEntry {
	return r.entries
}

// Open returns a reader for the decompressed content of the given file.
func (r *KvaReader) Open(entryPath string) (io.Reader, error) {
	entry, ok := r.entries[entryPath]
	if !ok {
		return nil, eris.Errorf("entry %s not found in archive", entryPath)
	}

	section := io.NewSectionReader(r.hdl, int64(entry.offset), int64(entry.Size))
	return brotli.NewReader(section), nil
}

// Close closes the underlying archive file.
func (r *KvaReader) Close() error {
	return r.hdl.Close()
}
