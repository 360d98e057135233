package pdf

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunk is a run of paragraphs that fits the size limit.
type Chunk struct {
	FirstPage int
	Text      string
}

// Title returns the chunk's first line, cut to limit runes.
func (c Chunk) Title(limit int) string {
	line, _, _ := strings.Cut(c.Text, "\n")
	return truncateRunes(strings.TrimSpace(line), limit)
}

var blankLine = regexp.MustCompile(`\n[ \t\f\v]*\n`)

type paragraph struct {
	page int
	text string
}

// Split packs the pages' paragraphs into chunks of at most maxChars runes.
// Paragraphs stay whole unless one alone is over the limit; such a
// paragraph is cut on sentence ends and, failing that, hard-cut.
func Split(pages []Page, maxChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = 2000
	}

	var (
		chunks  []Chunk
		cur     strings.Builder
		curLen  int
		curPage int
	)
	flush := func() {
		if curLen == 0 {
			return
		}
		chunks = append(chunks, Chunk{FirstPage: curPage, Text: cur.String()})
		cur.Reset()
		curLen = 0
	}

	for _, p := range paragraphs(pages) {
		n := utf8.RuneCountInString(p.text)
		if n > maxChars {
			flush()
			for _, piece := range splitLong(p.text, maxChars) {
				chunks = append(chunks, Chunk{FirstPage: p.page, Text: piece})
			}
			continue
		}
		if curLen > 0 && curLen+2+n > maxChars {
			flush()
		}
		if curLen == 0 {
			curPage = p.page
		} else {
			cur.WriteString("\n\n")
			curLen += 2
		}
		cur.WriteString(p.text)
		curLen += n
	}
	flush()
	return chunks
}

// paragraphs splits page text on blank lines, trimming every line and
// dropping empty paragraphs.
func paragraphs(pages []Page) []paragraph {
	var out []paragraph
	for _, pg := range pages {
		text := strings.ReplaceAll(pg.Text, "\r\n", "\n")
		for _, block := range blankLine.Split(text, -1) {
			var lines []string
			for _, line := range strings.Split(block, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
			if len(lines) > 0 {
				out = append(out, paragraph{page: pg.Number, text: strings.Join(lines, "\n")})
			}
		}
	}
	return out
}

// splitLong cuts text into pieces of at most limit runes, preferring
// sentence ends.
func splitLong(text string, limit int) []string {
	var (
		pieces []string
		cur    []rune
	)
	for _, s := range sentences(text) {
		rs := []rune(s)
		if len(cur) > 0 && len(cur)+1+len(rs) > limit {
			pieces = append(pieces, string(cur))
			cur = cur[:0]
		}
		for len(rs) > limit {
			if len(cur) > 0 {
				pieces = append(pieces, string(cur))
				cur = cur[:0]
			}
			pieces = append(pieces, string(rs[:limit]))
			rs = []rune(strings.TrimLeftFunc(string(rs[limit:]), unicode.IsSpace))
		}
		if len(rs) == 0 {
			continue
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, rs...)
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}

// sentences splits after '.', '!', '?' or '…' followed by whitespace.
func sentences(text string) []string {
	var (
		out   []string
		start int
	)
	rs := []rune(text)
	for i := 0; i < len(rs)-1; i++ {
		switch rs[i] {
		case '.', '!', '?', '…':
			if unicode.IsSpace(rs[i+1]) {
				if s := strings.TrimSpace(string(rs[start : i+1])); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(rs[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
