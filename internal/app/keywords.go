package app

import (
	"math"
	"sort"

	"review_insights/internal/domain"
)

const DefaultVocabSize = 1000

// KeywordExtractor ranks unigrams and bigrams of the normalized corpus by
// TF-IDF. A term's importance is the SUM of its per-review weights, where
// each review vector is L2-normalized and idf = ln((1+n)/(1+df)) + 1.
type KeywordExtractor struct {
	tok       domain.Tokenizer
	vocabSize int
}

func NewKeywordExtractor(tok domain.Tokenizer, vocabSize int) *KeywordExtractor {
	if vocabSize <= 0 {
		vocabSize = DefaultVocabSize
	}
	return &KeywordExtractor{tok: tok, vocabSize: vocabSize}
}

// tokenize fills the Tokens cache of every review that lacks one.
func tokenize(tok domain.Tokenizer, rs []domain.Review) {
	for i := range rs {
		if rs[i].Tokens == nil {
			toks := tok.NormalizeTokens(rs[i].Text)
			if toks == nil {
				toks = []string{}
			}
			rs[i].Tokens = toks
		}
	}
}

// ngrams returns the unigrams followed by the bigrams of one review.
func ngrams(toks []string) []string {
	out := make([]string, 0, 2*len(toks))
	out = append(out, toks...)
	for i := 0; i+1 < len(toks); i++ {
		out = append(out, toks[i]+" "+toks[i+1])
	}
	return out
}

type termStat struct {
	first int // order of first appearance in the corpus
	tf    int // corpus-wide count, used for the vocabulary cap
	df    int
}

// Extract returns at most topN terms, descending by score, ties broken by
// first appearance. The only mutation is caching Tokens on rs.
func (k *KeywordExtractor) Extract(rs []domain.Review, topN int) []domain.Keyword {
	if topN <= 0 || len(rs) == 0 {
		return nil
	}
	tokenize(k.tok, rs)

	docs := make([]map[string]int, len(rs))
	stats := map[string]*termStat{}
	for i, r := range rs {
		counts := map[string]int{}
		for _, t := range ngrams(r.Tokens) {
			st, ok := stats[t]
			if !ok {
				st = &termStat{first: len(stats)}
				stats[t] = st
			}
			st.tf++
			if counts[t] == 0 {
				st.df++
			}
			counts[t]++
		}
		docs[i] = counts
	}

	vocab := make([]string, 0, len(stats))
	for t := range stats {
		vocab = append(vocab, t)
	}
	sort.Slice(vocab, func(a, b int) bool {
		sa, sb := stats[vocab[a]], stats[vocab[b]]
		if sa.tf != sb.tf {
			return sa.tf > sb.tf
		}
		return sa.first < sb.first
	})
	if len(vocab) > k.vocabSize {
		vocab = vocab[:k.vocabSize]
	}
	inVocab := make(map[string]struct{}, len(vocab))
	for _, t := range vocab {
		inVocab[t] = struct{}{}
	}

	n := float64(len(rs))
	idf := func(t string) float64 { return math.Log((1+n)/(1+float64(stats[t].df))) + 1 }

	scores := make(map[string]float64, len(vocab))
	for _, counts := range docs {
		// walk terms in first-seen order so float sums are reproducible
		terms := make([]string, 0, len(counts))
		for t := range counts {
			if _, ok := inVocab[t]; ok {
				terms = append(terms, t)
			}
		}
		sort.Slice(terms, func(a, b int) bool { return stats[terms[a]].first < stats[terms[b]].first })

		weights := make([]float64, len(terms))
		var norm float64
		for i, t := range terms {
			w := float64(counts[t]) * idf(t)
			weights[i] = w
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for i, t := range terms {
			scores[t] += weights[i] / norm
		}
	}

	sort.Slice(vocab, func(a, b int) bool {
		sa, sb := scores[vocab[a]], scores[vocab[b]]
		if sa != sb {
			return sa > sb
		}
		return stats[vocab[a]].first < stats[vocab[b]].first
	})
	if len(vocab) > topN {
		vocab = vocab[:topN]
	}
	out := make([]domain.Keyword, 0, len(vocab))
	for _, t := range vocab {
		out = append(out, domain.Keyword{Term: t, Score: scores[t]})
	}
	return out
}
