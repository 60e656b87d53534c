package source

import (
	"cmp"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// FileSet owns every loaded file. Adding a path twice keeps both versions;
// lookups by path see the newest one.
type FileSet struct {
	files   []File
	byPath  map[string]FileID
	baseDir string // пусто: текущая директория
}

func NewFileSet() *FileSet { return NewFileSetWithBase("") }

// NewFileSetWithBase makes relative diagnostic paths resolve against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{byPath: make(map[string]FileID), baseDir: baseDir}
}

func (fs *FileSet) SetBaseDir(dir string) { fs.baseDir = dir }

func (fs *FileSet) BaseDir() string {
	if fs.baseDir != "" {
		return fs.baseDir
	}
	wd, _ := os.Getwd()
	return wd
}

// Add stores already normalized content under a fresh id.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id, p := FileID(n), normalizePath(path)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    p,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.byPath[p] = id
	return id
}

// Load reads path from disk and adds its normalized content.
func (fs *FileSet) Load(path string) (FileID, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- caller-chosen source file
	if err != nil {
		return 0, err
	}
	content, flags := Normalize(raw)
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content (tests, stdin, generated code).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Normalize strips a BOM, folds CRLF to LF and converts the text to NFC,
// so identifiers compare byte-wise.
func Normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	var ok bool
	if content, ok = removeBOM(content); ok {
		flags |= FileHadBOM
	}
	if content, ok = normalizeCRLF(content); ok {
		flags |= FileNormalizedCRLF
	}
	if !norm.NFC.IsNormal(content) {
		content = norm.NFC.Bytes(content)
		flags |= FileNormalizedNFC
	}
	return content, flags
}

func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

func (fs *FileSet) Len() int { return len(fs.files) }

// GetLatest returns the id of the newest version of path.
func (fs *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fs.byPath[normalizePath(path)]
	return id, ok
}

func (fs *FileSet) GetByPath(path string) (*File, bool) {
	id, ok := fs.GetLatest(path)
	if !ok {
		return nil, false
	}
	return fs.Get(id), true
}

// Offset converts a 1-based position to a byte offset. The column may point
// one past the last byte of a line.
func (fs *FileSet) Offset(id FileID, pos LineCol) (uint32, error) {
	f := fs.Get(id)
	if f == nil {
		return 0, fmt.Errorf("unknown file id %d", id)
	}
	if pos.Line == 0 || pos.Col == 0 {
		return 0, fmt.Errorf("position %d:%d is not 1-based", pos.Line, pos.Col)
	}
	start, _, ok := f.LineRange(pos.Line)
	if !ok {
		return 0, fmt.Errorf("%s: line %d out of range", f.Path, pos.Line)
	}
	off := start + pos.Col - 1
	if off > f.contentLen() {
		return 0, fmt.Errorf("%s: column %d out of range", f.Path, pos.Col)
	}
	return off, nil
}

// Resolve returns the line and column of both ends of span.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// LineRange returns the byte range [start, end) of the 1-based line
// without its '\n'. ok is false for lines outside the file.
func (f *File) LineRange(line uint32) (start, end uint32, ok bool) {
	n := uint32(len(f.LineIdx)) // #nosec G115 -- bounded by content length
	if line == 0 || line > n+1 {
		return 0, 0, false
	}
	if line > 1 {
		start = f.LineIdx[line-2] + 1
	}
	end = f.contentLen()
	if line <= n {
		end = f.LineIdx[line-1]
	}
	return start, end, start <= end
}

// GetLine returns the text of the 1-based line, or "".
func (f *File) GetLine(line uint32) string {
	start, end, ok := f.LineRange(line)
	if !ok {
		return ""
	}
	return string(f.Content[start:end])
}

func (f *File) contentLen() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// FormatPath renders the path for output: "absolute", "relative" (to
// baseDir, or the working directory), "basename", or "auto", which keeps
// short and relative paths and shortens long absolute ones.
func (f *File) FormatPath(mode, baseDir string) string {
	var (
		p   string
		err error
	)
	switch mode {
	case "absolute":
		p, err = AbsolutePath(f.Path)
	case "relative":
		if baseDir == "" {
			baseDir, _ = os.Getwd()
		}
		p, err = RelativePath(f.Path, baseDir)
	case "basename":
		p = BaseName(f.Path)
	case "auto":
		if len(f.Path) >= 40 && filepath.IsAbs(f.Path) {
			p = BaseName(f.Path)
		}
	}
	if err != nil {
		return f.Path
	}
	return cmp.Or(p, f.Path)
}
