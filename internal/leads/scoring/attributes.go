package scoring

import (
	"strings"
	"unicode"
)

const (
	maxEmailScore   = 25
	maxCompanyScore = 20
	maxTitleScore   = 30
	maxContactScore = 15
	maxSourceScore  = 10
	maxRuleScore    = 100
)

// freeEmailDomains are consumer mailbox providers. A lead on one of these is
// rarely writing on behalf of a company.
var freeEmailDomains = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"outlook.com": {},
	"aol.com":     {},
	"icloud.com":  {},
}

var companyIndicators = []string{"inc", "corp", "ltd", "llc", "technologies", "solutions"}

// titleTiers is evaluated top to bottom; the first tier with a matching
// keyword wins. Abbreviations of up to three letters only match whole words,
// so "Director" is not read as "cto" and "Coordinator" is not read as "coo".
// Keywords in rankPrefixed also match with a one-letter rank in front, as in
// SVP, EVP or AVP.
var titleTiers = []struct {
	keywords []string
	score    int
}{
	{[]string{"ceo", "cto", "cfo", "coo", "cmo", "chief", "president"}, 30},
	{[]string{"vp", "vice president", "director", "head of", "founder"}, 25},
	{[]string{"manager", "lead", "senior"}, 20},
}

// sourceScoreTable maps source keywords to their quality scores, in match order.
var sourceScoreTable = []struct {
	keyword string
	score   int
}{
	{"referral", 10},
	{"direct", 9},
	{"website", 8},
	{"linkedin", 7},
	{"email campaign", 6},
	{"social media", 5},
	{"cold outreach", 3},
}

var rankPrefixed = map[string]bool{"vp": true}

const defaultSourceScore = 5

// RuleBasedScore sums the five attribute scorers, capped at 100.
func RuleBasedScore(lead Lead) int {
	score := ScoreEmailDomain(lead.Email) +
		ScoreCompany(lead.Company) +
		ScoreJobTitle(lead.JobTitle) +
		ScoreContactInfo(lead) +
		ScoreLeadSource(lead.Source)
	return clampInt(score, 0, maxRuleScore)
}

// ScoreEmailDomain rates the mailbox domain: business domains score highest,
// free providers low and academic addresses lowest.
func ScoreEmailDomain(email string) int {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0
	}

	if at := strings.LastIndex(email, "@"); at >= 0 {
		if _, free := freeEmailDomains[email[at+1:]]; free {
			return 10
		}
		if !strings.HasSuffix(email, ".edu") {
			return maxEmailScore
		}
	}
	return 5
}

// ScoreCompany rewards a company name, more so when it carries a legal-entity
// or industry indicator.
func ScoreCompany(company string) int {
	company = strings.ToLower(strings.TrimSpace(company))
	if company == "" {
		return 0
	}
	if containsAny(company, companyIndicators) {
		return maxCompanyScore
	}
	return 15
}

// ScoreJobTitle rates decision-making authority.
func ScoreJobTitle(jobTitle string) int {
	title := strings.ToLower(strings.TrimSpace(jobTitle))
	if title == "" {
		return 0
	}
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tier := range titleTiers {
		for _, kw := range tier.keywords {
			if titleMatches(title, words, kw) {
				return tier.score
			}
		}
	}
	return 10
}

func titleMatches(title string, words []string, keyword string) bool {
	if len(keyword) > 3 {
		return strings.Contains(title, keyword)
	}
	for _, w := range words {
		if w == keyword {
			return true
		}
		if rankPrefixed[keyword] && len(w) == len(keyword)+1 && strings.HasSuffix(w, keyword) {
			return true
		}
	}
	return false
}

// ScoreContactInfo rewards reachable leads.
func ScoreContactInfo(lead Lead) int {
	score := 0
	if strings.TrimSpace(lead.Phone) != "" {
		score += 8
	}
	if strings.TrimSpace(lead.LinkedInURL) != "" {
		score += 4
	}
	if strings.TrimSpace(lead.Website) != "" {
		score += 3
	}
	return clampInt(score, 0, maxContactScore)
}

// ScoreLeadSource evaluates lead acquisition channel quality. A missing source
// and an unknown source both score the default.
func ScoreLeadSource(source *string) int {
	if source == nil {
		return defaultSourceScore
	}
	normalized := strings.ToLower(*source)
	for _, entry := range sourceScoreTable {
		if strings.Contains(normalized, entry.keyword) {
			return clampInt(entry.score, 0, maxSourceScore)
		}
	}
	return defaultSourceScore
}

// containsAny checks if s contains any of the keywords.
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clampInt(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
