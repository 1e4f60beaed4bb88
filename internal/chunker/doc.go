// Package chunker packs page text into token-bounded chunks for embedding.
//
// Text is cut into sentences by a Segmenter, each sentence is measured by a
// Tokenizer, and sentences are greedily packed in order until the next one
// would overflow the budget. A sentence that alone exceeds the budget is
// dropped and counted in the statistics, never split.
//
// Two behaviors are policies rather than fixed choices:
//
//   - TailPolicy decides whether the sentences still pending when the input
//     ends form a final chunk (TailFlush) or are discarded (TailDrop, the
//     behavior existing corpora were built with).
//   - KeepEmptyChunks decides whether an overflow that happens while no
//     sentence is pending emits a lone "." chunk, as those corpora do. It
//     also keeps the empty fragment left by text ending in ". ".
//
// Reproducing an existing corpus exactly takes both TailDrop and
// KeepEmptyChunks.
//
// # Usage
//
//	tok, err := chunker.NewTiktokenTokenizer("cl100k_base")
//	if err != nil {
//		return err
//	}
//	c := chunker.New(tok, chunker.WithMaxTokens(500))
//	chunks, dropped := c.Chunk(body)
package chunker
