package risk

import "strings"

// smallTalkPhrases short-circuit classification for ordinary conversation.
// Matching is case-insensitive against the trimmed message.
var smallTalkPhrases = []string{
	"hi",
	"hello",
	"hey",
	"hey there",
	"hi there",
	"good morning",
	"good afternoon",
	"good evening",
	"good night",
	"how are you",
	"how are you doing",
	"what's up",
	"whats up",
	"thanks",
	"thank you",
	"ok",
	"okay",
	"yes",
	"no",
	"bye",
	"goodbye",
	"see you",
	"lol",
}

// dangerTokens disqualify a short message from the small-talk fast path.
var dangerTokens = []string{
	"kill",
	"die",
	"hurt",
	"hate",
	"suicide",
	"cut",
	"blood",
	"pain",
	"kill myself",
}

// criticalKeywords indicate immediate danger when found in a message.
var criticalKeywords = []string{
	"kill myself",
	"end my life",
	"want to die",
	"end it all",
	"suicide",
	"suicidal",
	"take my own life",
	"better off dead",
	"kill him",
	"kill her",
	"kill them",
	"going to hurt someone",
	"overdose",
}

// highRiskKeywords indicate elevated risk short of an immediate plan.
var highRiskKeywords = []string{
	"self harm",
	"self-harm",
	"cutting myself",
	"cut myself",
	"hurt myself",
	"hurting myself",
	"hopeless",
	"no reason to live",
	"worthless",
	"can't go on",
	"cant go on",
	"give up on everything",
	"sexual abuse",
	"sexually abused",
	"molested",
	"raped",
}

// isSmallTalk reports whether content is ordinary conversation that does not
// need the remote classifier: a known small-talk phrase, or a very short
// message with none of the danger tokens.
func isSmallTalk(content string) bool {
	normalized := strings.ToLower(strings.TrimSpace(content))
	normalized = strings.Trim(normalized, ".!?,:;")
	if normalized == "" {
		return true
	}

	for _, phrase := range smallTalkPhrases {
		if normalized == phrase {
			return true
		}
	}

	if len(normalized) <= 15 {
		for _, token := range dangerTokens {
			if strings.Contains(normalized, token) {
				return false
			}
		}
		return true
	}

	return false
}

// scanKeywords performs the local fallback scan. It returns the matched level
// and the categories implied by the matched phrases.
func scanKeywords(content string) (Level, []string) {
	normalized := strings.ToLower(content)

	for _, kw := range criticalKeywords {
		if strings.Contains(normalized, kw) {
			return LevelCritical, categoriesForKeyword(kw)
		}
	}
	for _, kw := range highRiskKeywords {
		if strings.Contains(normalized, kw) {
			return LevelHigh, categoriesForKeyword(kw)
		}
	}
	return LevelLow, nil
}

func categoriesForKeyword(kw string) []string {
	switch {
	case strings.Contains(kw, "kill him"), strings.Contains(kw, "kill her"),
		strings.Contains(kw, "kill them"), strings.Contains(kw, "hurt someone"):
		return []string{"violence"}
	case strings.Contains(kw, "abuse"), strings.Contains(kw, "molested"), strings.Contains(kw, "raped"):
		return []string{"abuse"}
	case strings.Contains(kw, "harm"), strings.Contains(kw, "cut"), strings.Contains(kw, "hurt"):
		return []string{"self_harm"}
	case strings.Contains(kw, "overdose"):
		return []string{"substance_abuse", "suicide"}
	case strings.Contains(kw, "hopeless"), strings.Contains(kw, "worthless"),
		strings.Contains(kw, "go on"), strings.Contains(kw, "give up"):
		return []string{"mental_health_crisis"}
	default:
		return []string{"suicide"}
	}
}
