package guardrails

import (
	"fmt"
	"regexp"
	"strings"
)

// Config configures the guardrail engine. All pattern lists are versioned
// configuration data; the zero value of each list falls back to the
// defaults in rules.go.
type Config struct {
	// InjectionPatterns flag attempts to override system behavior.
	InjectionPatterns []string `koanf:"injection_patterns"`

	// SensitivePatterns flag regulated identifiers and secrets.
	SensitivePatterns []string `koanf:"sensitive_patterns"`

	// DomainKeywords mark a question as in-domain (case-insensitive
	// substring match).
	DomainKeywords []string `koanf:"domain_keywords"`

	// GenericPatterns recognize greetings and small talk.
	GenericPatterns []string `koanf:"generic_patterns"`

	// LeakPatterns flag system-level framing in generated answers.
	LeakPatterns []string `koanf:"leak_patterns"`

	// MinWords is the minimum question word count (default 3).
	MinWords int `koanf:"min_words"`

	// MaxChars is the maximum question character length (default 1000).
	MaxChars int `koanf:"max_chars"`
}

// ApplyDefaults fills unset fields with the default rule sets.
func (c *Config) ApplyDefaults() {
	if len(c.InjectionPatterns) == 0 {
		c.InjectionPatterns = DefaultInjectionPatterns()
	}
	if len(c.SensitivePatterns) == 0 {
		c.SensitivePatterns = DefaultSensitivePatterns()
	}
	if len(c.DomainKeywords) == 0 {
		c.DomainKeywords = DefaultDomainKeywords()
	}
	if len(c.GenericPatterns) == 0 {
		c.GenericPatterns = DefaultGenericPatterns()
	}
	if len(c.LeakPatterns) == 0 {
		c.LeakPatterns = DefaultLeakPatterns()
	}
	if c.MinWords == 0 {
		c.MinWords = 3
	}
	if c.MaxChars == 0 {
		c.MaxChars = 1000
	}
}

// Engine evaluates guardrail checks against questions and answers.
//
// All patterns are compiled once at construction; the engine holds no
// mutable state afterwards and is safe for concurrent use across requests.
type Engine struct {
	injection []*regexp.Regexp
	sensitive []*regexp.Regexp
	generic   []*regexp.Regexp
	leak      []*regexp.Regexp
	keywords  []string
	minWords  int
	maxChars  int
}

// New creates an Engine from cfg. A nil cfg uses the default rule sets.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.ApplyDefaults()

	e := &Engine{
		minWords: cfg.MinWords,
		maxChars: cfg.MaxChars,
	}

	var err error
	if e.injection, err = compileAll("injection", cfg.InjectionPatterns); err != nil {
		return nil, err
	}
	if e.sensitive, err = compileAll("sensitive", cfg.SensitivePatterns); err != nil {
		return nil, err
	}
	if e.generic, err = compileAll("generic", cfg.GenericPatterns); err != nil {
		return nil, err
	}
	if e.leak, err = compileAll("leak", cfg.LeakPatterns); err != nil {
		return nil, err
	}

	e.keywords = make([]string, len(cfg.DomainKeywords))
	for i, kw := range cfg.DomainKeywords {
		e.keywords[i] = strings.ToLower(kw)
	}

	return e, nil
}

func compileAll(kind string, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%s pattern %d: %w", kind, i, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// CheckQuery runs the ordered input checks against a question. The first
// check to flag blocks the request and short-circuits the remainder:
// prompt injection, then sensitive data, then domain membership, then
// length and shape.
func (e *Engine) CheckQuery(question string) Result {
	if r := e.checkInjection(question); r.Blocked {
		return r
	}
	if r := e.checkSensitive(question); r.Blocked {
		return r
	}
	// Domain membership runs before the length checks on purpose: a short
	// generic greeting reports OUT_OF_DOMAIN, not INVALID_QUERY.
	if r := e.checkDomain(question); r.Blocked {
		return r
	}
	if r := e.checkShape(question); r.Blocked {
		return r
	}
	return Pass
}

// CheckResponse runs the output checks against a generated answer. Only
// system-leak framing blocks here; domain and sensitive-data rules apply
// to input only.
func (e *Engine) CheckResponse(answer string) Result {
	for _, re := range e.leak {
		if re.MatchString(answer) {
			return block(PolicySystemLeak, "answer leaks system-level framing")
		}
	}
	return Pass
}

func (e *Engine) checkInjection(question string) Result {
	for _, re := range e.injection {
		if re.MatchString(question) {
			return block(PolicyPromptInjection, "question attempts to override system behavior")
		}
	}
	return Pass
}

func (e *Engine) checkSensitive(question string) Result {
	for _, re := range e.sensitive {
		if re.MatchString(question) {
			return block(PolicySensitiveData, "question references sensitive or regulated data")
		}
	}
	return Pass
}

// checkDomain blocks only when the question BOTH lacks every domain keyword
// AND matches a generic small-talk pattern. A keyword-absent question that
// is not recognized as generic falls through to the shape checks; this
// conservative asymmetry avoids false positives on well-formed off-topic
// questions.
func (e *Engine) checkDomain(question string) Result {
	lower := strings.ToLower(question)
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			return Pass
		}
	}
	for _, re := range e.generic {
		if re.MatchString(question) {
			return block(PolicyOutOfDomain, "question is generic small talk outside the knowledge domain")
		}
	}
	return Pass
}

func (e *Engine) checkShape(question string) Result {
	if len(strings.Fields(question)) < e.minWords {
		return block(PolicyInvalidQuery, fmt.Sprintf("question has fewer than %d words", e.minWords))
	}
	if len(question) > e.maxChars {
		return block(PolicyQueryTooLong, fmt.Sprintf("question exceeds %d characters", e.maxChars))
	}
	return Pass
}
