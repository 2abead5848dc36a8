package guardrails

// Default pattern sets cover the system's two working languages, Portuguese
// and English. They are configuration data: deployments can replace any of
// them via Config without touching code.

// DefaultInjectionPatterns matches phrasings that try to override system
// behavior or reassign the assistant's role.
func DefaultInjectionPatterns() []string {
	return []string{
		`(?i)ignore\s+(?:all\s+)?(?:previous|prior|above)\s+instructions`,
		`(?i)ignore\s+(?:as\s+)?instru[cç][oõ]es\s+(?:anteriores|acima)`,
		`(?i)disregard\s+(?:all\s+)?(?:previous|prior)\s+instructions`,
		`(?i)desconsidere\s+(?:as\s+)?instru[cç][oõ]es`,
		`(?i)reveal\s+(?:your\s+)?system\s+prompt`,
		`(?i)(?:mostre|revele)\s+(?:o\s+)?(?:seu\s+)?prompt\s+d[eo]\s+sistema`,
		`(?i)act\s+as\s+if\s+you\s+are`,
		`(?i)pretend\s+to\s+be`,
		`(?i)finja\s+(?:que\s+(?:voc[eê]\s+)?[eé]|ser)`,
		`(?i)you\s+are\s+now\s+`,
		`(?i)voc[eê]\s+agora\s+[eé]\s+`,
		`(?i)aja\s+como\s+se\s+(?:voc[eê]\s+)?fosse`,
		`(?i)esque[cç]a\s+(?:tudo|suas\s+instru[cç][oõ]es)`,
		`(?i)new\s+instructions?\s*:`,
	}
}

// DefaultSensitivePatterns matches regulated identifiers and secrets.
func DefaultSensitivePatterns() []string {
	return []string{
		`(?i)\bcpfs?\b`,
		`(?i)\bcnpjs?\b`,
		`(?i)\brg\b`,
		`(?i)\bsenhas?\b`,
		`(?i)\bpasswords?\b`,
		`(?i)\bpasswd\b`,
		`(?i)cart[aã]o\s+de\s+cr[eé]dito`,
		`(?i)credit\s+card`,
		`(?i)n[uú]mero\s+d[oe]\s+cart[aã]o`,
		`(?i)card\s+number`,
		`\b(?:\d[ -]?){13,16}\b`,
		`(?i)chave\s+privada`,
		`(?i)private\s+key`,
		`(?i)api[_ -]?key`,
		`(?i)token\s+de\s+acesso`,
		`(?i)access\s+token`,
		`(?i)social\s+security`,
		`(?i)\bssn\b`,
	}
}

// DefaultDomainKeywords is the vocabulary that marks a question as
// in-domain. Matching is case-insensitive substring.
func DefaultDomainKeywords() []string {
	return []string{
		"vertex",
		"gemini",
		"google cloud",
		"gcp",
		"bigquery",
		"cloud storage",
		"firestore",
		"machine learning",
		"aprendizado de máquina",
		"inteligência artificial",
		"artificial intelligence",
		"modelo",
		"model",
		"treinamento",
		"training",
		"embedding",
		"llm",
		"ia generativa",
		"generative ai",
		"rag",
		"agente",
		"agent",
		"pipeline",
		"dataset",
		"notebook",
		"endpoint",
	}
}

// DefaultGenericPatterns matches greetings and small talk. A question that
// matches one of these AND carries no domain keyword is out of domain.
func DefaultGenericPatterns() []string {
	return []string{
		`(?i)^\s*(?:ol[aá]|oi|e\s*a[ií])[\s\p{P}]*$`,
		`(?i)^\s*(?:hello|hi|hey)[\s\p{P}]*$`,
		`(?i)^\s*(?:bom\s+dia|boa\s+tarde|boa\s+noite)[\s\p{P}]*$`,
		`(?i)^\s*(?:good\s+(?:morning|afternoon|evening))[\s\p{P}]*$`,
		`(?i)^\s*(?:tudo\s+bem|como\s+vai|como\s+voc[eê]\s+est[aá])[\s\p{P}]*$`,
		`(?i)^\s*(?:how\s+are\s+you|what'?s\s+up)[\s\p{P}]*$`,
		`(?i)^\s*(?:obrigad[oa]|valeu|thanks|thank\s+you)[\s\p{P}]*$`,
		`(?i)^\s*(?:tchau|at[eé]\s+logo|bye|goodbye)[\s\p{P}]*$`,
	}
}

// DefaultLeakPatterns matches system-level framing in generated answers.
func DefaultLeakPatterns() []string {
	return []string{
		`(?i)as\s+an\s+ai\s+(?:language\s+)?model`,
		`(?i)como\s+(?:um\s+)?modelo\s+de\s+linguagem`,
		`(?i)i\s+am\s+programmed\s+to`,
		`(?i)fui\s+programad[oa]\s+para`,
		`(?i)my\s+instructions\s+are`,
		`(?i)minhas\s+instru[cç][oõ]es\s+s[aã]o`,
		`(?i)my\s+system\s+prompt`,
		`(?i)meu\s+prompt\s+d[eo]\s+sistema`,
	}
}
