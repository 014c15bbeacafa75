package ddraw

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Binject/debug/pe"
)

// mappedImage is an io.ReaderAt over a PE image as the loader mapped it.
// File offsets inside a section are read at the section's virtual address,
// offsets below the first section are the headers, anything else (overlay,
// certificates) reads as zeros.
type mappedImage struct {
	mem      []byte
	sections []*pe.Section
}

// translate returns the image offset of file offset off and how many bytes
// follow it in the same region. A negative rva means off is not mapped.
func (m *mappedImage) translate(off int64) (rva int64, avail int64) {
	headers := int64(math.MaxInt64)
	next := int64(math.MaxInt64)
	for _, s := range m.sections {
		start, size := int64(s.Offset), int64(s.Size)
		if size == 0 || start == 0 {
			continue
		}
		if off >= start && off < start+size {
			return int64(s.VirtualAddress) + off - start, start + size - off
		}
		headers = min(headers, start)
		if start > off {
			next = min(next, start)
		}
	}
	if off < headers {
		return off, headers - off
	}
	return -1, next - off
}

func (m *mappedImage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative image offset %d", off)
	}
	for done := 0; done < len(p); {
		rva, avail := m.translate(off + int64(done))
		chunk := p[done:]
		if avail < int64(len(chunk)) {
			chunk = chunk[:avail]
		}
		n := 0
		if rva >= 0 && rva < int64(len(m.mem)) {
			n = copy(chunk, m.mem[rva:])
		}
		clear(chunk[n:])
		done += len(chunk)
	}
	return len(p), nil
}

// openMappedImage parses the headers of the image mapped in mem. Section
// readers of the returned file share the image reader, so once the section
// table is known they read from virtual addresses.
func openMappedImage(mem []byte) (*pe.File, error) {
	img := &mappedImage{mem: mem}
	f, err := pe.NewFile(img)
	if err != nil {
		return nil, fmt.Errorf("parse image headers: %w", err)
	}
	img.sections = f.Sections
	return f, nil
}

// importThunks returns the RVA of every import address table of f.
func importThunks(f *pe.File) ([]uint32, error) {
	dirs, _, _, err := f.ImportDirectoryTable()
	if err != nil {
		return nil, fmt.Errorf("import directory: %w", err)
	}
	thunks := make([]uint32, 0, len(dirs))
	for _, d := range dirs {
		if d.FirstThunk != 0 {
			thunks = append(thunks, d.FirstThunk)
		}
	}
	return thunks, nil
}

// underDir reports whether path is inside dir, case insensitively.
func underDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(strings.ToLower(filepath.Clean(dir)), strings.ToLower(filepath.Clean(path)))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
