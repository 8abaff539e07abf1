package services

import (
	"strings"
	"unicode/utf8"
)

// splitSeparators is the separator ladder for semantic splitting, from
// coarsest to finest. The empty string means character-level windows,
// which always terminates.
var splitSeparators = []string{"\n\n", "\n", " "}

// splitText splits text into pieces of at most target bytes,
// consecutive pieces overlapping by up to overlap bytes taken from the
// previous piece's tail. It tries each separator from coarsest to
// finest and uses the first whose segments all fit the target; when
// none does, it falls back to fixed character windows.
func splitText(text string, target, overlap int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= target {
		return []string{text}
	}
	if overlap >= target {
		overlap = target / 4
	}

	for _, sep := range splitSeparators {
		segments := strings.Split(text, sep)
		if len(segments) < 2 {
			continue
		}
		if maxSegmentLen(segments) > target {
			continue
		}
		return assemblePieces(segments, sep, target, overlap)
	}

	return splitByCharacters(text, target, overlap)
}

// assemblePieces packs separator segments into pieces of at most
// target bytes, seeding each piece after the first with the tail of
// its predecessor.
func assemblePieces(segments []string, sep string, target, overlap int) []string {
	var pieces []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
		}
	}

	for _, seg := range segments {
		need := len(seg)
		if current.Len() > 0 {
			need += len(sep)
		}

		if current.Len()+need > target {
			prev := current.String()
			flush()

			// Seed the next piece with the previous tail, trimming
			// the overlap when the segment alone nearly fills the
			// target.
			ov := overlap
			if room := target - len(seg) - len(sep); ov > room {
				ov = room
			}
			if ov > 0 && len(prev) > 0 {
				tail := prev
				if len(tail) > ov {
					tail = tail[len(tail)-ov:]
					tail = alignRuneStart(tail)
				}
				current.WriteString(tail)
				current.WriteString(sep)
			}
		}

		if current.Len() > 0 && !strings.HasSuffix(current.String(), sep) {
			current.WriteString(sep)
		}
		current.WriteString(seg)
	}
	flush()

	return pieces
}

// splitByCharacters is the last-resort tier: windows of at most target
// bytes, each starting overlap bytes before the previous window's end.
// Both window edges land on rune boundaries so no piece cuts a
// multi-byte character.
func splitByCharacters(text string, target, overlap int) []string {
	var pieces []string
	start := 0
	for start < len(text) {
		end := start + target
		if end >= len(text) {
			pieces = append(pieces, text[start:])
			break
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			// A single rune wider than the window; emit it whole.
			_, size := utf8.DecodeRuneInString(text[start:])
			end = start + size
		}
		pieces = append(pieces, text[start:end])

		next := end - overlap
		if next <= start {
			next = end
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
	return pieces
}

// alignRuneStart drops leading bytes until s starts on a rune boundary.
func alignRuneStart(s string) string {
	for len(s) > 0 && !utf8.RuneStart(s[0]) {
		s = s[1:]
	}
	return s
}

func maxSegmentLen(segments []string) int {
	maxLen := 0
	for _, s := range segments {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	return maxLen
}
