package validate

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kweidner/metasynth/internal/chunker"
	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/label"
)

// Config controls the validation rule battery.
type Config struct {
	Chunking          chunker.Config `json:"chunking" yaml:"chunking"`
	RequiredLabels    []label.Label  `json:"required_labels" yaml:"required_labels"`
	CompletenessRatio float64        `json:"completeness_ratio" yaml:"completeness_ratio"`
}

// DefaultConfig expects every audit report to carry at least a summary,
// findings and recommendations.
func DefaultConfig() Config {
	return Config{
		Chunking:          chunker.DefaultConfig(),
		RequiredLabels:    []label.Label{label.Summary, label.Findings, label.Recommendations},
		CompletenessRatio: 0.95,
	}
}

// Validate runs the fixed, ordered rule battery over a document's chunk
// set and returns the report. Inputs are never mutated and no rule
// aborts the run; failures accumulate as results with their severity.
func Validate(docID string, sections []document.Section, chunks []document.Chunk, diags []document.Diagnostic, cfg Config) document.ValidationReport {
	if cfg.Chunking.MaxTokens <= 0 {
		cfg.Chunking = chunker.DefaultConfig()
	}
	if cfg.CompletenessRatio <= 0 {
		cfg.CompletenessRatio = DefaultConfig().CompletenessRatio
	}
	if len(cfg.RequiredLabels) == 0 {
		cfg.RequiredLabels = DefaultConfig().RequiredLabels
	}

	report := document.ValidationReport{
		DocID:       docID,
		GeneratedAt: time.Now().UTC(),
	}
	report.Diagnostics = append(report.Diagnostics, diags...)

	report.Results = append(report.Results,
		checkLabelDistribution(chunks, cfg.RequiredLabels),
		checkSizeBounds(chunks, cfg.Chunking),
		checkOverlap(chunks, cfg.Chunking),
		checkCompleteness(sections, chunks, cfg.CompletenessRatio),
		checkPageMonotonicity(chunks),
	)
	return report
}

func checkLabelDistribution(chunks []document.Chunk, required []label.Label) document.RuleResult {
	seen := make(map[label.Label]bool, len(chunks))
	for _, c := range chunks {
		seen[c.Label] = true
	}
	var missing []string
	for _, l := range required {
		if !seen[l] {
			missing = append(missing, string(l))
		}
	}

	res := document.RuleResult{Rule: "label_distribution", Severity: document.SeverityWarning}
	if len(missing) == 0 {
		res.Passed = true
		res.Message = fmt.Sprintf("all %d required labels present", len(required))
	} else {
		res.Message = fmt.Sprintf("missing required labels: %s", strings.Join(missing, ", "))
	}
	return res
}

func checkSizeBounds(chunks []document.Chunk, cfg chunker.Config) document.RuleResult {
	perSection := make(map[int]int)
	for _, c := range chunks {
		perSection[c.SectionIndex]++
	}

	var violations []string
	singletons := 0
	for _, c := range chunks {
		if c.TokenCount > cfg.MaxTokens {
			violations = append(violations, fmt.Sprintf("%s has %d tokens, above max %d", c.ID, c.TokenCount, cfg.MaxTokens))
			continue
		}
		if c.TokenCount < cfg.MinTokens {
			if perSection[c.SectionIndex] == 1 {
				singletons++
				continue
			}
			violations = append(violations, fmt.Sprintf("%s has %d tokens, below min %d", c.ID, c.TokenCount, cfg.MinTokens))
		}
	}

	res := document.RuleResult{Rule: "size_bounds", Severity: document.SeverityError}
	if len(violations) == 0 {
		res.Passed = true
		if singletons > 0 {
			res.Message = fmt.Sprintf("all chunks within bounds; %d undersized singletons permitted", singletons)
		} else {
			res.Message = "all chunks within bounds"
		}
	} else {
		res.Message = strings.Join(violations, "; ")
	}
	return res
}

// minDuplicationRunes is the shortest boundary repetition flagged as
// duplication. Shorter repeats are normal report boilerplate.
const minDuplicationRunes = 30

func checkOverlap(chunks []document.Chunk, cfg chunker.Config) document.RuleResult {
	res := document.RuleResult{Rule: "no_overlap", Severity: document.SeverityWarning}
	if cfg.OverlapTokens > 0 {
		res.Passed = true
		res.Message = fmt.Sprintf("skipped, overlap of %d tokens configured", cfg.OverlapTokens)
		return res
	}

	var problems []string
	for _, c := range chunks {
		if c.OverlapContext != "" {
			problems = append(problems, fmt.Sprintf("unexpected overlap context on %s", c.ID))
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.SectionIndex != prev.SectionIndex {
			continue
		}
		if n := duplicatedBoundary(prev.Text, cur.Text, minDuplicationRunes); n > 0 {
			problems = append(problems, fmt.Sprintf("%s repeats the last %d characters of %s", cur.ID, n, prev.ID))
		}
	}

	if len(problems) == 0 {
		res.Passed = true
		res.Message = "no duplicated text between consecutive chunks"
	} else {
		res.Message = strings.Join(problems, "; ")
	}
	return res
}

// duplicatedBoundary returns the length of the longest suffix of prev
// that reappears as the prefix of next, or 0 when it stays below
// minRunes.
func duplicatedBoundary(prev, next string, minRunes int) int {
	p := []rune(prev)
	n := []rune(next)
	max := len(p)
	if len(n) < max {
		max = len(n)
	}
	for l := max; l >= minRunes; l-- {
		match := true
		for i := 0; i < l; i++ {
			if p[len(p)-l+i] != n[i] {
				match = false
				break
			}
		}
		if match {
			return l
		}
	}
	return 0
}

// checkCompleteness guards against silent content loss between section
// assembly and chunking.
func checkCompleteness(sections []document.Section, chunks []document.Chunk, ratio float64) document.RuleResult {
	sectionLen := 0
	for _, s := range sections {
		sectionLen += utf8.RuneCountInString(s.Text())
	}
	chunkLen := 0
	for _, c := range chunks {
		chunkLen += utf8.RuneCountInString(c.Text)
	}

	res := document.RuleResult{Rule: "completeness", Severity: document.SeverityError}
	if sectionLen == 0 {
		res.Passed = true
		res.Message = "no section text to cover"
		return res
	}
	if float64(chunkLen) >= ratio*float64(sectionLen) {
		res.Passed = true
		res.Message = fmt.Sprintf("chunks cover %d of %d characters", chunkLen, sectionLen)
	} else {
		res.Message = fmt.Sprintf("chunks cover %d of %d characters, below required ratio %.2f", chunkLen, sectionLen, ratio)
	}
	return res
}

func checkPageMonotonicity(chunks []document.Chunk) document.RuleResult {
	res := document.RuleResult{Rule: "page_monotonicity", Severity: document.SeverityError}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartPage < chunks[i-1].StartPage {
			res.Message = fmt.Sprintf("chunk %s starts on page %d after chunk %s started on page %d",
				chunks[i].ID, chunks[i].StartPage, chunks[i-1].ID, chunks[i-1].StartPage)
			return res
		}
	}
	res.Passed = true
	res.Message = "start pages non-decreasing"
	return res
}
