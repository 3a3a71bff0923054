package fileblocks

import (
	"regexp"
	"strings"

	"github.com/jorge-barreto/sitegen/internal/markers"
)

// Kind identifies the marker that opened a block.
type Kind int

const (
	KindNewFile Kind = iota
	KindUpdateFile
	KindProjectName
)

func (k Kind) String() string {
	switch k {
	case KindNewFile:
		return "new-file"
	case KindUpdateFile:
		return "update-file"
	case KindProjectName:
		return "project-name"
	default:
		return "unknown"
	}
}

// Mode selects between live-preview extraction and the final pass.
type Mode struct {
	// Streaming exposes a trailing block whose body is still open.
	Streaming bool
}

var (
	Authoritative = Mode{}
	Streaming     = Mode{Streaming: true}
)

// Block represents a single file section extracted from model output.
type Block struct {
	Kind    Kind
	Path    string // e.g. "index.html", "components/nav.js"
	Raw     string // text between this header and the next one
	Content string // cleaned file body; empty for update blocks
	Partial bool   // trailing block whose body has not been closed yet
}

// Extract splits text into file blocks in order of appearance.
//
// A header looks like:
//
//	<<<<<<< NEW_FILE_START index.html >>>>>>> NEW_FILE_END
//	<<<<<<< UPDATE_FILE_START style.css >>>>>>> UPDATE_FILE_END
//
// The body of a block runs until the next header or the end of text. Only the
// last block can be partial: a new-file body whose code fence is still open,
// or an update body whose last SEARCH has no REPLACE yet. Partial new-file
// blocks are dropped unless mode.Streaming is set. Update blocks are always
// kept; the patch parser ignores an unfinished trailing instruction.
func Extract(text string, mode Mode) []Block {
	locs := markers.FileHeaderRe.FindAllStringSubmatchIndex(text, -1)
	var blocks []Block

	for i, loc := range locs {
		b := Block{Kind: KindNewFile}
		if loc[2] >= 0 {
			b.Path = strings.TrimSpace(text[loc[2]:loc[3]])
		} else {
			b.Kind = KindUpdateFile
			b.Path = strings.TrimSpace(text[loc[4]:loc[5]])
		}

		last := i == len(locs)-1
		end := len(text)
		if !last {
			end = locs[i+1][0]
		}
		b.Raw = text[loc[1]:end]

		if last {
			// A header that started but never closed belongs to the next,
			// unparseable block; cut it off this body.
			b.Raw = cutOpenHeader(b.Raw)
			b.Partial = isOpenBody(b.Kind, b.Raw, mode)
		}

		if b.Kind == KindNewFile {
			if b.Partial && !mode.Streaming {
				continue
			}
			b.Content = CleanContent(b.Raw, b.Path)
		}
		blocks = append(blocks, b)
	}

	return blocks
}

// NewFiles returns only the new-file blocks of blocks, keeping order.
func NewFiles(blocks []Block) []Block {
	var out []Block
	for _, b := range blocks {
		if b.Kind == KindNewFile {
			out = append(out, b)
		}
	}
	return out
}

// HasUpdates reports whether any block is an update block.
func HasUpdates(blocks []Block) bool {
	for _, b := range blocks {
		if b.Kind == KindUpdateFile {
			return true
		}
	}
	return false
}

// fenceLineRe matches a code fence standing on its own line. Backticks inside
// file content do not count.
var fenceLineRe = regexp.MustCompile("(?m)^[ \t]*" + regexp.QuoteMeta(markers.Fence) + `[\w.+-]*[ \t]*\r?$`)

func cutOpenHeader(raw string) string {
	cut := len(raw)
	for _, start := range []string{markers.NewFileStart, markers.UpdateFileStart} {
		if idx := strings.Index(raw, start); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return raw[:cut]
}

func isOpenBody(kind Kind, raw string, mode Mode) bool {
	switch kind {
	case KindUpdateFile:
		return strings.LastIndex(raw, markers.SearchStart) > strings.LastIndex(raw, markers.ReplaceEnd)
	default:
		fences := len(fenceLineRe.FindAllStringIndex(raw, -1))
		if fences%2 == 1 {
			return true
		}
		// Without any fence the body may still be arriving.
		return fences == 0 && mode.Streaming
	}
}
