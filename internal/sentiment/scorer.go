// Package sentiment scores free text and sorts posts into policy aspects.
package sentiment

import (
	"strings"
)

// Scorer rates text. Positive is favourable, negative unfavourable.
type Scorer interface {
	Score(text string) (int, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(text string) (int, error)

func (f ScorerFunc) Score(text string) (int, error) {
	return f(text)
}

// Lexicon is a word-list scorer: +1 per positive phrase occurrence, -1 per
// negative one. Negative phrases are matched first and removed so that
// "ไม่ดี" is not also counted as "ดี".
type Lexicon struct {
	Positive []string
	Negative []string
}

// DefaultLexicon returns a small Thai and English word list tuned to
// complaint-style posts.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Positive: []string{
			"ขอบคุณ", "ดีมาก", "ดีขึ้น", "สะอาด", "ปลอดภัย", "รวดเร็ว", "ประทับใจ", "ชื่นชม",
			"เรียบร้อย", "สะดวก", "ดี", "thank", "great", "good", "clean",
		},
		Negative: []string{
			"ไม่ดี", "ไม่ปลอดภัย", "ไม่สะดวก", "ไม่มีใคร", "แย่", "ชำรุด", "พัง", "สกปรก", "อันตราย",
			"ท่วม", "เหม็น", "ล่าช้า", "ร้องเรียน", "ทุจริต", "โกง", "รถติด", "ขยะ", "มืด",
			"bad", "broken", "dirty", "danger",
		},
	}
}

func (l *Lexicon) Score(text string) (int, error) {
	s := strings.ToLower(text)
	score := 0
	for _, w := range l.Negative {
		n := strings.Count(s, w)
		if n == 0 {
			continue
		}
		score -= n
		s = strings.ReplaceAll(s, w, " ")
	}
	for _, w := range l.Positive {
		n := strings.Count(s, w)
		if n == 0 {
			continue
		}
		score += n
		s = strings.ReplaceAll(s, w, " ")
	}
	return score, nil
}
