package scoring

import "strings"

const (
	recScheduleDemo      = "Schedule demo call immediately"
	recAssignSenior      = "Assign to senior sales representative"
	recPersonalizedEmail = "Send personalized email"
	recDiscoveryCall     = "Schedule discovery call"
	recNurture           = "Add to nurture campaign"
	recGatherInfo        = "Gather more information"
	recObtainPhone       = "Obtain phone number"
	recResearchCompany   = "Research company information"
)

// Classify maps a score to HOT (>=75), WARM (>=50) or COLD.
func Classify(score int) Classification {
	switch {
	case score >= 75:
		return ClassificationHot
	case score >= 50:
		return ClassificationWarm
	default:
		return ClassificationCold
	}
}

// PriorityFor maps a score to its action-urgency bucket.
func PriorityFor(score int) Priority {
	switch {
	case score >= 80:
		return PriorityImmediate
	case score >= 60:
		return PriorityHigh
	case score >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Recommend returns the next actions for a lead: the score band's base
// actions first, then one action per missing contact detail.
func Recommend(lead Lead, score int) []string {
	var recs recommendations

	switch {
	case score >= 75:
		recs.add(recScheduleDemo, recAssignSenior)
	case score >= 50:
		recs.add(recPersonalizedEmail, recDiscoveryCall)
	default:
		recs.add(recNurture, recGatherInfo)
	}

	if strings.TrimSpace(lead.Phone) == "" {
		recs.add(recObtainPhone)
	}
	if strings.TrimSpace(lead.Company) == "" {
		recs.add(recResearchCompany)
	}

	return recs.items
}

// recommendations is an insertion-ordered set of strings.
type recommendations struct {
	items []string
	seen  map[string]struct{}
}

func (r *recommendations) add(items ...string) {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	for _, item := range items {
		if _, dup := r.seen[item]; dup {
			continue
		}
		r.seen[item] = struct{}{}
		r.items = append(r.items, item)
	}
}
