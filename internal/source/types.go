package source

// FileID is the index of a file inside its FileSet.
type FileID uint32

// FileFlags records how a file entered the set and what loading changed.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // не с диска: тесты, stdin
	FileHadBOM                               // leading BOM was stripped
	FileNormalizedCRLF                       // CRLF folded into LF
	FileNormalizedNFC                        // content rewritten to NFC
	FilePrelude                              // built-in declarations
)

// File is one loaded source. Content is immutable once added;
// LineIdx holds the offset of every '\n'.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position.
type LineCol struct {
	Line, Col uint32
}
