// Package document implements the authoritative in-memory model of one
// open text buffer: UTF-16 code-unit storage, exact offset/position
// conversion, and an access-time stamp used by the diagnostics
// scheduler's LRU ordering.
package document

import (
	"sync"
	"time"
	"unicode/utf16"

	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

// Document is one open buffer. All positions are LSP-style: 0-based line,
// UTF-16 code-unit character. Document never talks to the analyzer; it is
// pure state, mutated only by Open/Change/Close notifications handled in
// internal/server.
type Document struct {
	mu sync.RWMutex

	uri      lsproto.DocumentUri
	language string
	version  int32
	text     []uint16

	lineStarts []uint32 // code-unit offset of the start of each line; nil means stale

	lastAccessed int64 // monotonic wall-clock milliseconds
}

// Language tags recognized on open; anything else is treated as "other"
// for script-kind derivation in internal/translate.
const (
	LanguageTypeScript      = "typescript"
	LanguageTypeScriptReact = "typescriptreact"
	LanguageJavaScript      = "javascript"
	LanguageJavaScriptReact = "javascriptreact"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// New creates a Document from its initial open-notification content.
func New(uri lsproto.DocumentUri, language string, version int32, text string) *Document {
	d := &Document{
		uri:          uri,
		language:     language,
		version:      version,
		text:         utf16.Encode([]rune(text)),
		lastAccessed: nowMillis(),
	}
	return d
}

func (d *Document) URI() lsproto.DocumentUri {
	return d.uri
}

func (d *Document) Language() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.language
}

func (d *Document) Version() int32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// LastAccessed returns the millisecond timestamp of the most recent
// mutation or read that serviced an editor query for this file.
func (d *Document) LastAccessed() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastAccessed
}

// MarkAccessed stamps the document as just-touched. Called on every
// mutation and on every read that services an editor query, so the
// diagnostics scheduler can order files by recency.
func (d *Document) MarkAccessed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAccessed = nowMillis()
}

// Text returns the full buffer content.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return string(utf16.Decode(d.text))
}

// GetText returns the text covered by r, or the full text if r is nil.
func (d *Document) GetText(r *lsproto.Range) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r == nil {
		return string(utf16.Decode(d.text))
	}
	start := d.offsetAtLocked(r.Start)
	end := d.offsetAtLocked(r.End)
	return string(utf16.Decode(d.text[start:end]))
}

// ApplyChange substitutes the window named by change.Range with
// change.Text, or replaces the whole document when Range is nil. version
// is the version carried by the enclosing didChange notification.
func (d *Document) ApplyChange(change *lsproto.TextDocumentContentChangeEvent, version int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	newText := utf16.Encode([]rune(change.Text))
	if change.Range == nil {
		d.text = newText
	} else {
		start := d.offsetAtLocked(change.Range.Start)
		end := d.offsetAtLocked(change.Range.End)
		merged := make([]uint16, 0, start+len(newText)+(len(d.text)-end))
		merged = append(merged, d.text[:start]...)
		merged = append(merged, newText...)
		merged = append(merged, d.text[end:]...)
		d.text = merged
	}
	d.lineStarts = nil
	d.version = version
	d.lastAccessed = nowMillis()
}

// LineCount returns the number of lines, counting a trailing empty line
// after a final break as its own line.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.ensureLineStartsLocked()
	return len(d.lineStarts)
}

// PositionAt converts a UTF-16 code-unit offset to an LSP (line, character).
func (d *Document) PositionAt(offset int) lsproto.Position {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.positionAtLocked(offset)
}

// OffsetAt converts an LSP (line, character) to a UTF-16 code-unit offset.
func (d *Document) OffsetAt(pos lsproto.Position) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.offsetAtLocked(pos)
}

// CodeUnitBefore returns the UTF-16 code unit immediately before offset,
// used by folding-range heuristics that inspect the character preceding
// a span boundary. ok is false at the start of the document.
func (d *Document) CodeUnitBefore(offset int) (unit uint16, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if offset <= 0 || offset > len(d.text) {
		return 0, false
	}
	return d.text[offset-1], true
}

// LineText returns the text of line (break characters excluded).
func (d *Document) LineText(line int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	start, end := d.lineRangeLocked(line)
	return string(utf16.Decode(d.text[start:end]))
}

// LineRange returns the [start, endExclusive) code-unit offsets of line,
// excluding its break characters.
func (d *Document) LineRange(line int) (start, endExclusive int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lineRangeLocked(line)
}

// LineEnd returns the position immediately after the last non-break
// character of line (its break-exclusive end). For a line ending in "\n"
// or a lone "\r" this is one code unit before the start of line+1; for a
// line ending in "\r\n" it is two.
func (d *Document) LineEnd(line int) lsproto.Position {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, end := d.lineRangeLocked(line)
	return d.positionAtLocked(end)
}

func (d *Document) ensureLineStartsLocked() {
	if d.lineStarts != nil {
		return
	}
	starts := []uint32{0}
	i := 0
	for i < len(d.text) {
		switch d.text[i] {
		case '\n':
			starts = append(starts, uint32(i+1))
			i++
		case '\r':
			if i+1 < len(d.text) && d.text[i+1] == '\n' {
				starts = append(starts, uint32(i+2))
				i += 2
			} else {
				starts = append(starts, uint32(i+1))
				i++
			}
		default:
			i++
		}
	}
	d.lineStarts = starts
}

func (d *Document) lineRangeLocked(line int) (start, endExclusive int) {
	d.ensureLineStartsLocked()
	if line < 0 {
		line = 0
	}
	if line >= len(d.lineStarts) {
		line = len(d.lineStarts) - 1
	}
	start = int(d.lineStarts[line])
	var lineEndWithBreak int
	if line+1 < len(d.lineStarts) {
		lineEndWithBreak = int(d.lineStarts[line+1])
	} else {
		lineEndWithBreak = len(d.text)
	}
	endExclusive = lineEndWithBreak
	for endExclusive > start && isBreakChar(d.text[endExclusive-1]) {
		endExclusive--
	}
	return start, endExclusive
}

func isBreakChar(c uint16) bool {
	return c == '\n' || c == '\r'
}

func (d *Document) positionAtLocked(offset int) lsproto.Position {
	d.ensureLineStartsLocked()
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	// Binary search for the last line start <= offset.
	lo, hi := 0, len(d.lineStarts)-1
	line := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if int(d.lineStarts[mid]) <= offset {
			line = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return lsproto.Position{Line: uint32(line), Character: uint32(offset - int(d.lineStarts[line]))}
}

func (d *Document) offsetAtLocked(pos lsproto.Position) int {
	d.ensureLineStartsLocked()
	line := int(pos.Line)
	if line < 0 {
		line = 0
	}
	if line >= len(d.lineStarts) {
		line = len(d.lineStarts) - 1
	}
	lineStart := int(d.lineStarts[line])
	var lineEndWithBreak int
	if line+1 < len(d.lineStarts) {
		lineEndWithBreak = int(d.lineStarts[line+1])
	} else {
		lineEndWithBreak = len(d.text)
	}
	offset := lineStart + int(pos.Character)
	if offset > lineEndWithBreak {
		offset = lineEndWithBreak
	}
	return offset
}
