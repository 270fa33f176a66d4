package knowledge

import (
	"math"
	"strings"
	"unicode"
)

// Вес векторной близости против лексического пересечения во втором проходе.
const similarityWeight = 0.7

// rerankScore — второй проход скоринга кандидата: векторная близость,
// смешанная с лексическим пересечением вопроса и текста фрагмента.
// Результат в [0, 1], выше — лучше.
func rerankScore(question, chunkText string, similarity float64) float64 {
	lex := tokenOverlap(question, chunkText)
	score := similarityWeight*similarity + (1-similarityWeight)*lex
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// tokenOverlap — косинус по частотам токенов двух текстов.
func tokenOverlap(a, b string) float64 {
	ta := termFreq(a)
	tb := termFreq(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var dot, na, nb float64
	for tok, fa := range ta {
		na += fa * fa
		if fb, ok := tb[tok]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range tb {
		nb += fb * fb
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func termFreq(s string) map[string]float64 {
	freq := make(map[string]float64)
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(tok) < 2 {
			continue
		}
		freq[tok]++
	}
	return freq
}
