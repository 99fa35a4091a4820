package faq

// Topic is the label produced by the topic classifier.
type Topic string

const (
	TopicIT      Topic = "IT"
	TopicChat    Topic = "Chat"
	TopicGeneral Topic = "General"
)

// MatchSource records which collection produced a candidate.
type MatchSource string

const (
	MatchSourcePrimary MatchSource = "primary"
	MatchSourceAlias   MatchSource = "alias"
)

// AnswerSource is the provenance reported to callers.
type AnswerSource string

const (
	AnswerSourceDatabase AnswerSource = "database"
	AnswerSourceLLM      AnswerSource = "llm"
	AnswerSourceError    AnswerSource = "error"
)

// FaqEntry is a canonical question/answer pair.
type FaqEntry struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Embedding []float32 `json:"-"`
}

// FaqVariant is a paraphrase of an entry's question.
type FaqVariant struct {
	ID        int64     `json:"id"`
	FaqID     int64     `json:"faq_id"`
	Text      string    `json:"variant"`
	Embedding []float32 `json:"-"`
}

// MatchCandidate is one search hit. MatchedText is only set for alias hits.
type MatchCandidate struct {
	FaqID       int64       `json:"faq_id"`
	Question    string      `json:"question"`
	Answer      string      `json:"answer"`
	Similarity  float64     `json:"similarity"`
	Source      MatchSource `json:"source"`
	MatchedText string      `json:"matched_text,omitempty"`
}

// QueryVariantSet holds the original question, its variants and one embedding per text.
// Embeddings[0] belongs to Original, Embeddings[i] to Variants[i-1].
type QueryVariantSet struct {
	Original   string
	Variants   []string
	Embeddings [][]float32
}

// Texts returns the original question followed by the variants.
func (s QueryVariantSet) Texts() []string {
	out := make([]string, 0, len(s.Variants)+1)
	out = append(out, s.Original)
	return append(out, s.Variants...)
}

// Request is the inbound answer call.
type Request struct {
	Question         string `json:"question" form:"q" binding:"required,min=1,max=500"`
	GenerateVariants *bool  `json:"generate_variants,omitempty" form:"generate_variants"`
	NumVariants      int    `json:"num_variants,omitempty" form:"num_variants" binding:"omitempty,min=1,max=5"`
}

// Response carries the answer and its provenance.
type Response struct {
	Answer            string           `json:"answer"`
	Source            AnswerSource     `json:"source"`
	Confidence        float64          `json:"confidence"`
	MatchedFAQ        *MatchCandidate  `json:"matched_faq"`
	AllMatches        []MatchCandidate `json:"all_matches"`
	GeneratedVariants []string         `json:"generated_variants"`
	ProcessingTimeMs  float64          `json:"processing_time_ms"`
}

// StoreStats reports readiness of the vector store.
type StoreStats struct {
	Entries  int64 `json:"faqs"`
	Variants int64 `json:"variants"`
}

// HealthStatus summarises service readiness.
type HealthStatus struct {
	Healthy bool
	Stats   StoreStats
	Err     error
}
