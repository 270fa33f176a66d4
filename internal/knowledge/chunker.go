package knowledge

import (
	"bufio"
	"strings"
	"unicode"
)

// Префиксы, с которых обычно начинается заголовок-вопрос в базе знаний.
var questionPrefixes = []string{"what", "how", "when", "where", "who", "about", "enrollment"}

// ChunkText группирует строки документа в логические фрагменты: новый фрагмент
// начинается на заголовке или вопросе, остальные строки копятся в буфер.
// Эвристика, не парсер; подходит для Q&A-документов вида «вопрос — абзацы ответа».
func ChunkText(text string) []string {
	var chunks []string
	var buf strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isHeadingOrQuestion(line) && buf.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	if buf.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(buf.String()))
	}
	return chunks
}

func isHeadingOrQuestion(line string) bool {
	if strings.HasSuffix(line, "?") {
		return true
	}
	if isTitleCase(line) {
		return true
	}
	if len(line) > 10 && line == strings.ToUpper(line) && line != strings.ToLower(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, p := range questionPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// isTitleCase: каждое слово начинается с заглавной буквы, остальные — строчные.
func isTitleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	sawLetter := false
	for _, w := range words {
		first := true
		for _, r := range w {
			if !unicode.IsLetter(r) {
				continue
			}
			sawLetter = true
			if first {
				if !unicode.IsUpper(r) {
					return false
				}
				first = false
			} else if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return sawLetter
}
