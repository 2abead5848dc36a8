// Package guardrails applies content-safety rules to questions and answers.
package guardrails

// Policy identifies which guardrail policy a blocked request violated.
type Policy string

const (
	// PolicyPromptInjection flags attempts to override system behavior.
	PolicyPromptInjection Policy = "PROMPT_INJECTION"

	// PolicySensitiveData flags requests naming regulated identifiers or
	// secrets.
	PolicySensitiveData Policy = "SENSITIVE_DATA"

	// PolicyOutOfDomain flags generic utterances with no domain keyword.
	PolicyOutOfDomain Policy = "OUT_OF_DOMAIN"

	// PolicyInvalidQuery flags questions below the minimum word count.
	PolicyInvalidQuery Policy = "INVALID_QUERY"

	// PolicyQueryTooLong flags questions above the character ceiling.
	PolicyQueryTooLong Policy = "QUERY_TOO_LONG"

	// PolicySystemLeak flags generated answers leaking system-level
	// framing. Applies to output only.
	PolicySystemLeak Policy = "SYSTEM_LEAK"
)

// Result is the outcome of a guardrail check. It is an expected value, not
// an error: a blocked request is reported to the caller with its policy tag
// and never retried or escalated.
type Result struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
	Policy  Policy `json:"policy_violated,omitempty"`
}

// Pass is the result of a check that found nothing to block.
var Pass = Result{}

// block builds a blocked result for the given policy.
func block(policy Policy, reason string) Result {
	return Result{Blocked: true, Reason: reason, Policy: policy}
}
