package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kweidner/metasynth/internal/document"
)

// Config controls chunk sizing.
type Config struct {
	MaxTokens     int `json:"max_tokens" yaml:"max_tokens"`
	MinTokens     int `json:"min_tokens" yaml:"min_tokens"`
	OverlapTokens int `json:"overlap_tokens" yaml:"overlap_tokens"`
}

// DefaultConfig returns the sizing used for audit reports.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     500,
		MinTokens:     50,
		OverlapTokens: 0,
	}
}

// Validate checks the sizing bounds against each other.
func (c Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.MinTokens < 0 {
		return fmt.Errorf("min_tokens must not be negative, got %d", c.MinTokens)
	}
	if c.MinTokens > c.MaxTokens {
		return fmt.Errorf("min_tokens %d exceeds max_tokens %d", c.MinTokens, c.MaxTokens)
	}
	if c.OverlapTokens < 0 {
		return fmt.Errorf("overlap_tokens must not be negative, got %d", c.OverlapTokens)
	}
	if c.OverlapTokens >= c.MaxTokens {
		return fmt.Errorf("overlap_tokens %d must be smaller than max_tokens %d", c.OverlapTokens, c.MaxTokens)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultConfig().MaxTokens
	}
	if c.MinTokens < 0 {
		c.MinTokens = 0
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = 0
	}
	return c
}

// SplitSections chunks every section of a document in order. Chunk
// indexes are unique across the whole document.
func SplitSections(docID string, sections []document.Section, cfg Config) []document.Chunk {
	var chunks []document.Chunk
	for _, sec := range sections {
		chunks = append(chunks, SplitSection(docID, sec, cfg, len(chunks))...)
	}
	return chunks
}

// SplitSection converts one section into token-bounded chunks. A section
// at or below MaxTokens becomes exactly one chunk. Larger sections are
// cut only at sentence boundaries, greedily filling each chunk up to
// MaxTokens; a trailing chunk below MinTokens pulls whole sentences back
// from its predecessor until both ends hold their bounds. A single
// sentence above MaxTokens cannot be cut and becomes an oversized chunk
// that validation flags later.
func SplitSection(docID string, sec document.Section, cfg Config, firstIndex int) []document.Chunk {
	cfg = cfg.withDefaults()

	sentences := sectionSentences(sec)
	if len(sentences) == 0 {
		return nil
	}

	totalWords := 0
	for _, s := range sentences {
		totalWords += s.words
	}

	if tokensFromWords(totalWords) <= cfg.MaxTokens {
		text := sec.Text()
		return []document.Chunk{{
			ID:           chunkID(docID, sec.Index, 0),
			DocID:        docID,
			Index:        firstIndex,
			SectionIndex: sec.Index,
			Label:        sec.Label,
			Text:         text,
			TokenCount:   EstimateTokens(text),
			StartPage:    sec.StartPage,
			EndPage:      sec.EndPage,
			Confidence:   sec.Confidence,
		}}
	}

	var drafts []draft
	var cur draft
	for _, s := range sentences {
		if cur.words > 0 && tokensFromWords(cur.words+s.words) > cfg.MaxTokens {
			drafts = append(drafts, cur)
			cur = draft{}
		}
		cur.add(s)
	}
	if cur.words > 0 {
		drafts = append(drafts, cur)
	}
	balanceTail(drafts, cfg)

	chunks := make([]document.Chunk, 0, len(drafts))
	for i, d := range drafts {
		text := d.render()
		start, end := d.pageRange()
		c := document.Chunk{
			ID:           chunkID(docID, sec.Index, i),
			DocID:        docID,
			Index:        firstIndex + i,
			SectionIndex: sec.Index,
			Label:        sec.Label,
			Text:         text,
			TokenCount:   EstimateTokens(text),
			StartPage:    start,
			EndPage:      end,
			Confidence:   sec.Confidence,
		}
		if cfg.OverlapTokens > 0 && i > 0 {
			c.OverlapContext = overlapContext(drafts[i-1], cfg.OverlapTokens)
		}
		chunks = append(chunks, c)
	}
	return chunks
}

// balanceTail enforces MinTokens on the final chunk of a multi-chunk
// section. A greedy boundary exists only where one more sentence would
// overflow MaxTokens, so the two trailing chunks can never simply merge
// back together; instead whole sentences shift from the previous chunk
// into the last one until the last reaches MinTokens, the previous would
// drop below MinTokens, or the shift would overflow the last chunk. A
// tail that still ends up undersized is emitted and left for validation
// to flag.
func balanceTail(drafts []draft, cfg Config) {
	if len(drafts) < 2 {
		return
	}
	last := &drafts[len(drafts)-1]
	prev := &drafts[len(drafts)-2]

	for tokensFromWords(last.words) < cfg.MinTokens && len(prev.sentences) > 1 {
		s := prev.sentences[len(prev.sentences)-1]
		if tokensFromWords(prev.words-s.words) < cfg.MinTokens {
			break
		}
		if tokensFromWords(last.words+s.words) > cfg.MaxTokens {
			break
		}
		prev.removeLast()
		last.prepend(s)
	}
}

// overlapContext returns whole trailing sentences of the previous chunk
// that fit the overlap budget. The text rides alongside the chunk and is
// never duplicated into its Text, so token accounting stays exact.
func overlapContext(prev draft, budget int) string {
	words := 0
	cut := len(prev.sentences)
	for cut > 0 {
		w := words + prev.sentences[cut-1].words
		if tokensFromWords(w) > budget {
			break
		}
		words = w
		cut--
	}
	if cut == len(prev.sentences) {
		return ""
	}
	parts := make([]string, 0, len(prev.sentences)-cut)
	for _, s := range prev.sentences[cut:] {
		parts = append(parts, s.text)
	}
	return strings.Join(parts, " ")
}

func chunkID(docID string, sectionIndex, n int) string {
	return fmt.Sprintf("%s_s%d_c%d", docID, sectionIndex, n)
}

// sentence is the smallest splitting unit. Chunk boundaries fall only
// between sentences, never inside one.
type sentence struct {
	text      string
	page      int
	words     int
	paraStart bool
}

// draft accumulates sentences for one chunk before rendering.
type draft struct {
	sentences []sentence
	words     int
}

func (d *draft) add(s sentence) {
	d.sentences = append(d.sentences, s)
	d.words += s.words
}

func (d *draft) removeLast() {
	s := d.sentences[len(d.sentences)-1]
	d.sentences = d.sentences[:len(d.sentences)-1]
	d.words -= s.words
}

func (d *draft) prepend(s sentence) {
	d.sentences = append([]sentence{s}, d.sentences...)
	d.words += s.words
}

func (d *draft) render() string {
	var b strings.Builder
	for i, s := range d.sentences {
		if i > 0 {
			if s.paraStart {
				b.WriteString("\n\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(s.text)
	}
	return b.String()
}

func (d *draft) pageRange() (int, int) {
	start, end := 0, 0
	for i, s := range d.sentences {
		if i == 0 || s.page < start {
			start = s.page
		}
		if s.page > end {
			end = s.page
		}
	}
	return start, end
}

func sectionSentences(sec document.Section) []sentence {
	var out []sentence
	for _, para := range sec.Paragraphs {
		parts := splitSentences(para.Text)
		for i, text := range parts {
			out = append(out, sentence{
				text:      text,
				page:      para.Page,
				words:     len(strings.Fields(text)),
				paraStart: i == 0,
			})
		}
	}
	return out
}

// splitSentences cuts text at sentence-final punctuation followed by
// whitespace. The caller feeds one paragraph at a time, so a paragraph
// end always closes the trailing sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if isSentenceFinal(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSentenceFinal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// tokensFromWords mirrors EstimateTokens for a known word count, so
// accumulation decisions and recorded chunk counts use one formula.
func tokensFromWords(words int) int {
	if words <= 0 {
		return 0
	}
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
