package retriever

// Passage is one indexed chunk of an ingested document. Links holds only the
// URLs that appear within this specific chunk.
type Passage struct {
	Id     string   `json:"id"`
	Text   string   `json:"text"`
	Source string   `json:"source"`
	Links  []string `json:"links"`
	Score  float32  `json:"score,omitempty"`
}
