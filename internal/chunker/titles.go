package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/gmviana/studysearch-go/internal/models"
)

// Hierarchy levels, lower binds tighter. Explicit chaptering outranks
// sectioning, which outranks decimal numbering, which outranks a generic
// uppercase heading.
const (
	levelChapter   = 1
	levelSection   = 2
	levelDecimal   = 3 // plus nesting depth minus one
	levelUppercase = 6
)

// titlePattern is one title-detection pattern class. Patterns are tried
// in order; the first match decides the hierarchy level.
type titlePattern struct {
	name  string
	re    *regexp.Regexp
	level func(line string) int
}

var decimalDepthRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)`)

var titlePatterns = []titlePattern{
	{
		name: "chapter",
		re:   regexp.MustCompile(`(?i)^\s*(cap[ií]tulo|chapter)\s+([IVXLCDM]+|\d+)\b`),
		level: func(string) int { return levelChapter },
	},
	{
		name: "section",
		re:   regexp.MustCompile(`(?i)^\s*(se[çc][ãa]o|section|t[ií]tulo|title|anexo|annex|parte|part)\s+([IVXLCDM]+|\d+)\b`),
		level: func(string) int { return levelSection },
	},
	{
		name: "decimal",
		re:   regexp.MustCompile(`^\s*\d+(\.\d+)*[.)]?\s+\p{L}`),
		level: func(line string) int {
			m := decimalDepthRe.FindStringSubmatch(line)
			if m == nil {
				return levelDecimal
			}
			depth := strings.Count(m[1], ".")
			return levelDecimal + depth
		},
	},
	{
		name: "uppercase",
		re:   regexp.MustCompile(`^\s*\p{Lu}[\p{Lu}\s\d.,:()-]+$`),
		level: func(string) int { return levelUppercase },
	},
}

// sectionKeywords mark contextual section starts in the fallback pass.
var sectionKeywords = []string{
	"requisitos", "requirements",
	"inscrição", "inscricao", "registration",
	"atribuições", "atribuicoes", "duties", "responsibilities",
	"remuneração", "remuneracao", "salary", "compensation",
	"cronograma", "schedule", "timeline",
	"edital", "notice",
	"vagas", "vacancies", "openings",
	"benefícios", "beneficios", "benefits",
	"conteúdo programático", "syllabus",
	"disposições", "disposicoes", "provisions",
}

// Stop words used by the sanity filter; real titles rarely pack many of
// these.
var stopWords = map[string]bool{
	"the": true, "of": true, "and": true, "to": true, "in": true,
	"a": true, "is": true, "that": true, "for": true, "with": true,
	"de": true, "da": true, "do": true, "das": true, "dos": true,
	"e": true, "o": true, "os": true, "as": true, "que": true,
	"em": true, "um": true, "uma": true, "para": true, "com": true,
}

const (
	minTitleLen = 3
	maxTitleLen = 120

	maxDigitRatio    = 0.4
	maxSymbolRatio   = 0.3
	maxStopWordRatio = 0.5
)

// detectTitle reports whether the line looks like a heading and at what
// hierarchy level. Pattern matches still pass through the sanity filter
// so enumerations and data rows are not misread as titles.
func detectTitle(line string) (level int, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !titleSane(trimmed) {
		return 0, false
	}
	for _, pattern := range titlePatterns {
		if pattern.re.MatchString(trimmed) {
			return pattern.level(trimmed), true
		}
	}
	return 0, false
}

// titleSane applies the length and density sanity filters.
func titleSane(line string) bool {
	n := len([]rune(line))
	if n < minTitleLen || n > maxTitleLen {
		return false
	}

	var digits, symbols, letters int
	for _, r := range line {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
		default:
			symbols++
		}
	}
	if letters == 0 {
		return false
	}
	if float64(digits)/float64(n) > maxDigitRatio {
		return false
	}
	if float64(symbols)/float64(n) > maxSymbolRatio {
		return false
	}

	words := strings.Fields(strings.ToLower(line))
	if len(words) == 0 {
		return false
	}
	stops := 0
	for _, w := range words {
		if stopWords[strings.Trim(w, ".,;:()")] {
			stops++
		}
	}
	return float64(stops)/float64(len(words)) <= maxStopWordRatio
}

// titleAware splits along detected headings. Consecutive non-title lines
// accumulate under the most recent title; a title transition closes the
// current chunk. When structure detection fails the contextual fallback
// and then the positional split guarantee at least three chunks.
func titleAware(sourceID, text string, cfg Config) []models.Chunk {
	lines := strings.Split(text, "\n")

	var chunks []models.Chunk
	var current []string
	var currentHints *models.StructureHints

	flush := func() {
		body := strings.TrimSpace(strings.Join(current, "\n"))
		if body == "" {
			current = nil
			return
		}
		chunks = append(chunks, models.Chunk{Text: body, Hints: currentHints})
		current = nil
	}

	for _, line := range lines {
		if level, ok := detectTitle(line); ok {
			flush()
			currentHints = &models.StructureHints{
				Title: strings.TrimSpace(line),
				Level: level,
			}
		}
		current = append(current, line)
	}
	flush()

	// The fallbacks apply only when title scanning found no structure; a
	// document with few real headings keeps its detected chunks as-is.
	if len(chunks) <= 1 {
		chunks = contextualSplit(text, cfg)
		if len(chunks) < 3 {
			chunks = positionalSplit(text, cfg.FallbackParts)
		}
	}

	assignParents(chunks)
	return chunks
}

// contextualSplit partitions by coarse break rules: keyword-triggered
// section starts, blank-line-preceded capitalized lines, and size-forced
// splits once a chunk outgrows MaxChunkChars.
func contextualSplit(text string, cfg Config) []models.Chunk {
	lines := strings.Split(text, "\n")

	var chunks []models.Chunk
	var current []string
	var currentSize int
	var currentTitle string
	prevBlank := true

	flush := func() {
		body := strings.TrimSpace(strings.Join(current, "\n"))
		if body == "" {
			current, currentSize = nil, 0
			return
		}
		chunk := models.Chunk{Text: body}
		if currentTitle != "" {
			chunk.Hints = &models.StructureHints{Title: currentTitle, Level: levelUppercase}
		}
		chunks = append(chunks, chunk)
		current, currentSize = nil, 0
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		breaks := false
		switch {
		case hasSectionKeyword(trimmed):
			breaks = true
		case prevBlank && isCapitalizedLine(trimmed):
			breaks = true
		case currentSize > cfg.MaxChunkChars:
			breaks = true
		}
		if breaks && currentSize > 0 {
			flush()
			currentTitle = ""
			if titleSane(trimmed) {
				currentTitle = trimmed
			}
		}
		current = append(current, line)
		currentSize += len(line)
		prevBlank = trimmed == ""
	}
	flush()

	return chunks
}

func hasSectionKeyword(line string) bool {
	if len(line) == 0 || len(line) > maxTitleLen {
		return false
	}
	lower := strings.ToLower(line)
	for _, kw := range sectionKeywords {
		if strings.HasPrefix(lower, kw) {
			return true
		}
	}
	return false
}

func isCapitalizedLine(line string) bool {
	if line == "" || len([]rune(line)) > maxTitleLen {
		return false
	}
	first := []rune(line)[0]
	return unicode.IsUpper(first)
}

// positionalSplit is the last resort: an even split into parts segments,
// each assigned an inferred title from its opening lines.
func positionalSplit(text string, parts int) []models.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if parts > len(words) {
		parts = len(words)
	}

	per := (len(words) + parts - 1) / parts
	var chunks []models.Chunk
	for start := 0; start < len(words); start += per {
		end := start + per
		if end > len(words) {
			end = len(words)
		}
		body := strings.Join(words[start:end], " ")
		chunks = append(chunks, models.Chunk{
			Text: body,
			Hints: &models.StructureHints{
				Title: inferSegmentTitle(body, len(chunks)+1),
				Level: levelUppercase,
			},
		})
	}
	return chunks
}

// inferSegmentTitle scans the segment's opening for a domain keyword or
// structural cue, else labels it positionally.
func inferSegmentTitle(body string, position int) string {
	head := body
	if len(head) > 300 {
		head = head[:300]
	}
	lower := strings.ToLower(head)
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, kw) {
			return capitalize(kw)
		}
	}
	return "Part " + strconv.Itoa(position)
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// assignParents links each hinted chunk to the nearest preceding chunk
// with a strictly lower hierarchy level. Chunks without hints (preamble
// before the first heading) take no part in the hierarchy.
func assignParents(chunks []models.Chunk) {
	for i := range chunks {
		if chunks[i].Hints == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if chunks[j].Hints == nil {
				continue
			}
			if chunks[j].Hints.Level < chunks[i].Hints.Level {
				parent := j
				chunks[i].Hints.ParentIndex = &parent
				break
			}
		}
	}
}
