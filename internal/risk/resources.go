package risk

// crisisResources maps a risk category to the hotline/resource lines surfaced
// alongside a verdict that needs them.
var crisisResources = map[string][]string{
	"suicide": {
		"988 Suicide & Crisis Lifeline: call or text 988 (24/7)",
		"Crisis Text Line: text HOME to 741741",
	},
	"self_harm": {
		"Crisis Text Line: text HOME to 741741",
		"Self-injury Outreach & Support: sioutreach.org",
	},
	"violence": {
		"988 Suicide & Crisis Lifeline: call or text 988 (24/7)",
		"National Domestic Violence Hotline: 1-800-799-7233",
	},
	"substance_abuse": {
		"SAMHSA National Helpline: 1-800-662-4357 (24/7)",
	},
	"abuse": {
		"National Domestic Violence Hotline: 1-800-799-7233",
		"Childhelp National Child Abuse Hotline: 1-800-422-4453",
	},
	"mental_health_crisis": {
		"988 Suicide & Crisis Lifeline: call or text 988 (24/7)",
		"SAMHSA National Helpline: 1-800-662-4357 (24/7)",
	},
}

// CrisisResourcesFor returns the deduplicated concatenation of resources for
// all categories present, preserving first-seen order. Unknown categories are
// skipped.
func CrisisResourcesFor(categories []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, cat := range categories {
		for _, res := range crisisResources[cat] {
			if _, ok := seen[res]; ok {
				continue
			}
			seen[res] = struct{}{}
			out = append(out, res)
		}
	}
	return out
}
