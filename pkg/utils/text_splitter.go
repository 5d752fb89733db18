package utils

// SplitText splits a long string into chunks of approximately 'chunkTokens'
// tokens with 'overlapTokens' of overlap between adjacent chunks. Splitting is
// done on the token stream when the encoder is available so chunk boundaries
// line up with the embedding model's view of the text; otherwise it degrades
// to a character-based split with the chars/4 heuristic.
func SplitText(text string, chunkTokens int, overlapTokens int) []string {
	if chunkTokens <= 0 {
		chunkTokens = 512
	}
	if overlapTokens < 0 || overlapTokens >= chunkTokens {
		overlapTokens = 0
	}

	if enc := getEncoding(); enc != nil {
		tokens := enc.Encode(text, nil, nil)
		if len(tokens) <= chunkTokens {
			return []string{text}
		}

		var chunks []string
		step := chunkTokens - overlapTokens
		for i := 0; i < len(tokens); i += step {
			end := i + chunkTokens
			if end > len(tokens) {
				end = len(tokens)
			}
			chunks = append(chunks, enc.Decode(tokens[i:end]))
			if end == len(tokens) {
				break
			}
		}
		return chunks
	}

	return splitByRunes(text, chunkTokens*4, overlapTokens*4)
}

// splitByRunes is the fallback character splitter.
func splitByRunes(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}
