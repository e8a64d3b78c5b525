package stress

// pressureThreshold is exclusive: a rating of exactly 7 does not fire a pressure rule.
const pressureThreshold = 7.0

// DefaultCopingAllowList holds the coping strategies treated as healthy when the
// coping rule is enabled without an explicit list.
var DefaultCopingAllowList = []string{"exercise", "meditation", "sports", "relaxation"}

type evaluation struct {
	score    float64
	category Category
	factors  FactorRecord
}

// rule appends zero or more catalog keys for an evaluation.
type rule struct {
	id   string
	keys func(in evaluation) []string
}

type ruleTable []rule

func newRuleTable(copingAllowList []string) ruleTable {
	rules := ruleTable{
		{id: "severity", keys: severityKeys},
		{id: FactorPeerPressure, keys: peerPressureKeys},
		{id: FactorHomeAcademicPressure, keys: homePressureKeys},
		{id: FactorHasBadHabits, keys: badHabitsKeys},
	}
	if len(copingAllowList) > 0 {
		rules = append(rules, rule{id: FactorCopingStrategy, keys: copingKeys(copingAllowList)})
	}
	return rules
}

// keys evaluates every rule in declaration order.
func (t ruleTable) keys(in evaluation) []string {
	out := make([]string, 0, len(t)+1)
	for _, r := range t {
		out = append(out, r.keys(in)...)
	}
	return out
}

func (t ruleTable) ids() []string {
	out := make([]string, len(t))
	for i, r := range t {
		out[i] = r.id
	}
	return out
}

func severityKeys(in evaluation) []string {
	switch in.category {
	case CategoryLow:
		return []string{KeySeverityLow}
	case CategoryModerate:
		return []string{KeySeverityModerate}
	case CategoryHigh:
		return []string{KeySeverityHigh}
	default:
		return []string{KeySeverityCriticalSupport, KeySeverityCriticalCalm}
	}
}

func peerPressureKeys(in evaluation) []string {
	if in.factors.PeerPressure > pressureThreshold {
		return []string{KeyPeerPressure}
	}
	return nil
}

func homePressureKeys(in evaluation) []string {
	if in.factors.HomeAcademicPressure > pressureThreshold {
		return []string{KeyHomePressure}
	}
	return nil
}

func badHabitsKeys(in evaluation) []string {
	if normalize(in.factors.HasBadHabits) == "yes" {
		return []string{KeyBadHabits}
	}
	return nil
}

func copingKeys(allowList []string) func(evaluation) []string {
	allowed := make(map[string]struct{}, len(allowList))
	for _, s := range allowList {
		if n := normalize(s); n != "" {
			allowed[n] = struct{}{}
		}
	}
	return func(in evaluation) []string {
		if _, ok := allowed[normalize(in.factors.CopingStrategy)]; ok {
			return nil
		}
		return []string{KeyCopingStrategy}
	}
}
