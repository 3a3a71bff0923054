package patch

import (
	"regexp"
	"strings"
	"unicode"
)

// Change is the 1-indexed, inclusive line range an applied instruction
// occupies in the patched content.
type Change struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// Result is the outcome of applying a list of instructions.
type Result struct {
	Content string
	Changes []Change
	// Dropped holds instructions whose search text matched nothing.
	Dropped []Instruction
}

// ApplyBlock parses raw as an update block body and applies it to content.
func ApplyBlock(content, raw string) Result {
	return Apply(content, ParseInstructions(raw))
}

// Apply runs instrs in order, each against the output of the previous one.
// An instruction whose search text cannot be found, literally or with
// whitespace tolerance, is skipped and reported in Result.Dropped.
func Apply(content string, instrs []Instruction) Result {
	res := Result{Content: content}
	for _, in := range instrs {
		if in.IsPrepend() {
			res.Content = in.Replace + "\n" + res.Content
			res.Changes = append(res.Changes, Change{StartLine: 1, EndLine: lineCount(in.Replace)})
			continue
		}

		start, end, ok := locate(res.Content, in.Search)
		if !ok {
			res.Dropped = append(res.Dropped, in)
			continue
		}
		first := strings.Count(res.Content[:start], "\n") + 1
		res.Changes = append(res.Changes, Change{
			StartLine: first,
			EndLine:   first + lineCount(in.Replace) - 1,
		})
		res.Content = res.Content[:start] + in.Replace + res.Content[end:]
	}
	return res
}

// locate finds search in content, first literally and then with
// FlexiblePattern.
func locate(content, search string) (start, end int, ok bool) {
	if i := strings.Index(content, search); i >= 0 {
		return i, i + len(search), true
	}
	re, err := FlexiblePattern(search)
	if err != nil {
		return 0, 0, false
	}
	loc := re.FindStringIndex(content)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// FlexiblePattern compiles search into a pattern that tolerates whitespace
// differences. Metacharacters are escaped. Interior whitespace runs match any
// amount of whitespace; runs at either edge match only spaces and tabs, so a
// match never swallows the line break before or after it. Adjacent "><" may
// have whitespace inserted between them, as may the position before any ">".
func FlexiblePattern(search string) (*regexp.Regexp, error) {
	runes := []rune(search)
	var b strings.Builder

	for i := 0; i < len(runes); {
		r := runes[i]
		if unicode.IsSpace(r) {
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if i == 0 || j == len(runes) {
				b.WriteString(`[ \t]*`)
			} else {
				b.WriteString(`\s*`)
			}
			i = j
			continue
		}

		if r == '>' {
			if i == 0 {
				b.WriteString(`[ \t]*`)
			} else if !unicode.IsSpace(runes[i-1]) {
				b.WriteString(`\s*`)
			}
			b.WriteByte('>')
			if i+1 < len(runes) && runes[i+1] == '<' {
				b.WriteString(`\s*`)
			}
			i++
			continue
		}

		b.WriteString(regexp.QuoteMeta(string(r)))
		i++
	}

	return regexp.Compile(b.String())
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
