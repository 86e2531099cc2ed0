package dataset

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	ssmlNamespace = "http://www.w3.org/2001/10/synthesis"
	defaultLang   = "en-US"

	midBreakMinWords    = 8
	midBreakProbability = 0.6
	midBreakAfterWord   = 2
)

// Candidate pause durations in milliseconds.
var (
	clausePausesMS = []int{300, 450, 600, 750, 900, 1200}
	emDashPausesMS = []int{350, 600, 900, 1200}
	hyphenPausesMS = []int{350, 600, 900}
	midPausesMS    = []int{350, 500, 650, 1000}
)

var punctuationPauses = map[rune][]int{
	',': clausePausesMS,
	';': clausePausesMS,
	':': clausePausesMS,
	'—': emDashPausesMS,
	'-': hyphenPausesMS,
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var attrEscaper = strings.NewReplacer(
	"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;",
)

// SSMLOptions controls document-level attributes of generated SSML.
type SSMLOptions struct {
	// Lang is the xml:lang of the speak element. Defaults to en-US.
	Lang string
}

// BuildSSML wraps text in a voice element and inserts randomized pauses after
// punctuation and, for longer sentences, once after the second word.
func BuildSSML(text, voice string, rng Source, opts SSMLOptions) string {
	lang := opts.Lang
	if lang == "" {
		lang = defaultLang
	}

	var builder strings.Builder

	builder.WriteString(`<speak version="1.0" xmlns="`)
	builder.WriteString(ssmlNamespace)
	builder.WriteString(`" xml:lang="`)
	builder.WriteString(attrEscaper.Replace(lang))
	builder.WriteString(`"><voice name="`)
	builder.WriteString(attrEscaper.Replace(voice))
	builder.WriteString(`">`)
	builder.WriteString(InsertPauses(text, rng))
	builder.WriteString(`</voice></speak>`)

	return builder.String()
}

// InsertPauses escapes text for SSML and inserts break elements. Breaks are
// only placed between characters of the source text, never inside entities.
func InsertPauses(text string, rng Source) string {
	runes := []rune(text)

	midAfter := -1
	if len(strings.Fields(text)) > midBreakMinWords && rng.Float64() < midBreakProbability {
		midAfter = midBreakAfterWord
	}

	var (
		builder   strings.Builder
		wordCount int
		absorbing bool
	)

	for index, char := range runes {
		if unicode.IsSpace(char) {
			if !absorbing {
				builder.WriteRune(char)
			}

			continue
		}

		absorbing = false

		builder.WriteString(textEscaper.Replace(string(char)))

		if pauses, ok := punctuationPauses[char]; ok {
			builder.WriteByte(' ')
			writeBreak(&builder, pick(pauses, rng))
			builder.WriteByte(' ')

			absorbing = true
		}

		wordEnd := index+1 == len(runes) || unicode.IsSpace(runes[index+1])
		if !wordEnd {
			continue
		}

		wordCount++
		if wordCount == midAfter {
			if !absorbing {
				builder.WriteByte(' ')
			}

			writeBreak(&builder, pick(midPausesMS, rng))
			builder.WriteByte(' ')

			absorbing = true
		}
	}

	return builder.String()
}

func writeBreak(builder *strings.Builder, millis int) {
	builder.WriteString(`<break time="`)
	builder.WriteString(strconv.Itoa(millis))
	builder.WriteString(`ms"/>`)
}

func pick(values []int, rng Source) int {
	return values[rng.IntN(len(values))]
}
