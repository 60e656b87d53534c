package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"

	"splice/internal/source"
)

// Cursor — байтовая позиция внутри [Off, Limit) одного файла.
type Cursor struct {
	File *source.File
	Off  uint32
	// Limit is the exclusive upper bound for Off; 0 means len(File.Content).
	Limit uint32
}

func NewCursor(f *source.File) Cursor {
	return Cursor{File: f, Limit: contentLen(f)}
}

func contentLen(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return n
}

func (c *Cursor) limit() uint32 {
	if c.Limit != 0 {
		return c.Limit
	}
	return contentLen(c.File)
}

func (c *Cursor) EOF() bool {
	return c.Off >= c.limit()
}

// Peek returns the current byte or 0 at the end of the range.
func (c *Cursor) Peek() byte {
	return c.PeekAt(0)
}

// PeekAt looks i bytes ahead without moving; 0 past the range.
func (c *Cursor) PeekAt(i uint32) byte {
	if c.Off+i >= c.limit() {
		return 0
	}
	return c.File.Content[c.Off+i]
}

// HasPrefix reports whether the remaining range starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	rest := c.File.Content[c.Off:c.limit()]
	return len(rest) >= len(s) && string(rest[:len(s)]) == s
}

// Match consumes s if the range continues with it.
func (c *Cursor) Match(s string) bool {
	if !c.HasPrefix(s) {
		return false
	}
	c.Off += uint32(len(s))
	return true
}

func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// Eat consumes the next byte if it matches b.
func (c *Cursor) Eat(b byte) bool {
	if !c.EOF() && c.File.Content[c.Off] == b {
		c.Off++
		return true
	}
	return false
}

// PeekRune decodes the rune at Off; size is 0 at the end of the range.
func (c *Cursor) PeekRune() (r rune, size int) {
	if c.EOF() {
		return utf8.RuneError, 0
	}
	if b := c.File.Content[c.Off]; b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRune(c.File.Content[c.Off:c.limit()])
}

func (c *Cursor) BumpRune() {
	_, sz := c.PeekRune()
	c.Off += uint32(sz)
}

// EatIdent consumes a Kt identifier: a letter or `_` followed by letters,
// digits and `_`. Nothing is consumed if the cursor is not at one.
func (c *Cursor) EatIdent() bool {
	r, sz := c.PeekRune()
	if sz == 0 || !isIdentStart(r) {
		return false
	}
	c.Off += uint32(sz)
	for {
		// ASCII без декодирования
		if b := c.Peek(); b < utf8.RuneSelf {
			if !isIdentStart(rune(b)) && !isDec(b) {
				return true
			}
			c.Off++
			continue
		}
		r, sz := c.PeekRune()
		if sz == 0 || !(isIdentStart(r) || unicode.IsDigit(r)) {
			return true
		}
		c.Off += uint32(sz)
	}
}

// Mark — сохранённая позиция для SpanFrom и Reset.
type Mark uint32

func (c *Cursor) Mark() Mark {
	return Mark(c.Off)
}

func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}

func (c *Cursor) Reset(m Mark) {
	c.Off = uint32(m)
}

func isIdentStart(r rune) bool {
	return r == '_' || (r < utf8.RuneSelf && (r|0x20 >= 'a' && r|0x20 <= 'z')) ||
		(r >= utf8.RuneSelf && unicode.IsLetter(r))
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b|0x20 >= 'a' && b|0x20 <= 'f')
}
