// Package answer orchestrates the question answering pipeline: guardrail
// screening, context retrieval, prompt assembly, completion, and response
// screening, with latency and cost accounting per request.
package answer

import (
	"errors"

	"github.com/luminara-ai/answerd/internal/guardrails"
	"github.com/luminara-ai/answerd/internal/vectorstore"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRetrieval indicates the retrieval step failed.
	ErrRetrieval = errors.New("retrieval failure")

	// ErrCompletion indicates the completion step failed.
	ErrCompletion = errors.New("completion failure")
)

// Usage carries the per-request latency and cost accounting.
type Usage struct {
	TotalLatencyMs     int64   `json:"total_latency_ms"`
	RetrievalLatencyMs int64   `json:"retrieval_latency_ms"`
	LLMLatencyMs       int64   `json:"llm_latency_ms"`
	PromptTokens       int     `json:"prompt_tokens"`
	CompletionTokens   int     `json:"completion_tokens"`
	TotalTokens        int     `json:"total_tokens"`
	EstimatedCostUSD   float64 `json:"estimated_cost_usd"`
	// TopKUsed is the retrieval depth requested, even when the store
	// returned fewer chunks.
	TopKUsed int `json:"top_k_used"`
	// ContextSizeChars is the total character length of the citation
	// excerpts, excluding prompt framing.
	ContextSizeChars int `json:"context_size_chars"`
}

// Response is the outcome of a single question. Exactly one of the answer
// path (Answer, Citations) or the blocked path (Blocked, Reason, Policy)
// is populated; Usage is reported in both cases.
type Response struct {
	Answer    string                 `json:"answer,omitempty"`
	Citations []vectorstore.Citation `json:"citations,omitempty"`
	Blocked   bool                   `json:"blocked"`
	Reason    string                 `json:"reason,omitempty"`
	Policy    guardrails.Policy      `json:"policy_violated,omitempty"`
	Usage     Usage                  `json:"usage"`
}

// blockedResponse builds a Response for a guardrail rejection.
func blockedResponse(result guardrails.Result, usage Usage) *Response {
	return &Response{
		Blocked: true,
		Reason:  result.Reason,
		Policy:  result.Policy,
		Usage:   usage,
	}
}
