package ingestor

import "strings"

// separators are tried in order; a piece that is still too large after a
// split recurses with the remaining separators.
var separators = []string{"\n\n", "\n", " ", ""}

// Split breaks text into chunks of at most size characters, carrying roughly
// overlap characters of trailing context into each following chunk.
func Split(text string, size int, overlap int) []string {
	if size < 1 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	for _, chunk := range split(text, separators, size, overlap) {
		chunk = strings.TrimSpace(chunk)
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

func split(text string, seps []string, size int, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	sep := seps[len(seps)-1]
	rest := seps
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for start := 0; start < len(text); start += size {
			end := min(start+size, len(text))
			pieces = append(pieces, text[start:end])
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks []string
	var window []string
	length := 0
	fresh := false

	flush := func() {
		if len(window) == 0 || !fresh {
			return
		}
		chunks = append(chunks, strings.Join(window, sep))
		fresh = false

		// retain trailing pieces as overlap for the next chunk
		kept := []string{}
		keptLen := 0
		for i := len(window) - 1; i >= 0; i-- {
			pieceLen := len(window[i]) + len(sep)
			if keptLen+pieceLen > overlap {
				break
			}
			kept = append([]string{window[i]}, kept...)
			keptLen += pieceLen
		}
		window = kept
		length = keptLen
	}

	for _, piece := range pieces {
		if len(piece) > size && len(rest) > 0 {
			flush()
			window = nil
			length = 0
			chunks = append(chunks, split(piece, rest, size, overlap)...)
			continue
		}

		if length+len(piece)+len(sep) > size {
			flush()
		}

		window = append(window, piece)
		length += len(piece) + len(sep)
		fresh = true
	}

	if len(window) > 0 && fresh {
		chunks = append(chunks, strings.Join(window, sep))
	}

	return chunks
}
