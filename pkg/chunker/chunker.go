package chunker

// Passage is one retrieval unit cut from an item's clean text. Index and
// Total let the index payload say "passage 2 of 7".
type Passage struct {
	Text  string
	Index int
	Total int
}

// Chunker cuts clean text into overlapping passages. Each passage after
// the first starts with the tail of its predecessor so retrieval keeps
// cross-boundary context.
type Chunker struct {
	targetSize int
	overlap    int
}

func NewChunker(targetSize, overlap int) *Chunker {
	if targetSize <= 0 {
		targetSize = 1000
	}
	if overlap < 0 || overlap >= targetSize {
		overlap = 0
	}
	return &Chunker{
		targetSize: targetSize,
		overlap:    overlap,
	}
}

// Chunk splits text into passages of approximately targetSize
// characters of new content each, preferring paragraph and sentence
// boundaries over hard cuts. Text shorter than targetSize yields exactly
// one passage.
func (c *Chunker) Chunk(text string) []Passage {
	runes := []rune(text)
	total := len(runes)

	if total == 0 {
		return nil
	}
	if total <= c.targetSize {
		return []Passage{{Text: text, Index: 0, Total: 1}}
	}

	var passages []Passage
	pos := 0
	for pos < total {
		end := pos + c.targetSize
		if end >= total {
			end = total
		} else {
			end = snapToBoundary(runes, pos, end)
		}

		head := pos
		if len(passages) > 0 {
			head = pos - c.overlap
			if head < 0 {
				head = 0
			}
		}

		passages = append(passages, Passage{
			Text:  string(runes[head:end]),
			Index: len(passages),
		})
		pos = end
	}

	for i := range passages {
		passages[i].Total = len(passages)
	}
	return passages
}

// snapToBoundary pulls the cut point back to the nearest paragraph or
// sentence end, searching no further than half a passage so fragments
// stay reasonably sized. Falls back to the hard cut.
func snapToBoundary(runes []rune, start, end int) int {
	min := start + (end-start)/2

	// Paragraph break first.
	for i := end - 1; i > min; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	// Then sentence end.
	for i := end - 1; i > min; i-- {
		switch runes[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return end
}
