// Package retrieval implements the hybrid retrieval pipeline.
//
// A query is analyzed into variants and a complexity signal, then searched
// concurrently by the dense (vector), sparse (keyword) and graph sources.
// Dense and sparse rankings are combined with reciprocal rank fusion, graph
// matches boost the candidates they confirm, and candidates sharing a parent
// passage are reduced to the best one. The head of the list is reranked by
// an LLM relevance scorer and, optionally, each result's context is
// compressed to the query-relevant part.
//
// Only the dense source is required. Every other failure degrades the
// response and is reported on it:
//
//	resp, err := p.Retrieve(ctx, retrieval.Request{Query: q, TopK: 5, UseGraph: true})
//	if err != nil {
//		return err
//	}
//	for _, src := range resp.FailedSources {
//		log.Printf("source %s unavailable", src)
//	}
package retrieval
