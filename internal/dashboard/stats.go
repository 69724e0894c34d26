package dashboard

import "nryli/internal/model"

// GroupCount is one row of a grouped count over region and delegate type.
type GroupCount struct {
	Region       string
	DelegateType string
	Count        int
}

// StatsFromGroups folds grouped counts into the dashboard aggregate.
func StatsFromGroups(groups []GroupCount) model.Stats {
	stats := model.Stats{
		ByRegion:       map[string]int{},
		ByDelegateType: map[string]int{},
	}
	for _, g := range groups {
		stats.Total += g.Count
		stats.ByRegion[g.Region] += g.Count
		stats.ByDelegateType[g.DelegateType] += g.Count
	}
	return stats
}

// CountValues tallies occurrences of each value.
func CountValues(values []string) map[string]int {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	return counts
}

// Cards is the presentation of the stats header: Visayas and Mindanao share a card.
type Cards struct {
	Total           int
	NCR             int
	Luzon           int
	VisayasMindanao int
}

func CardsFor(stats model.Stats) Cards {
	return Cards{
		Total:           stats.Total,
		NCR:             stats.ByRegion[string(model.RegionNCR)],
		Luzon:           stats.ByRegion[string(model.RegionLuzon)],
		VisayasMindanao: stats.ByRegion[string(model.RegionVisayas)] + stats.ByRegion[string(model.RegionMindanao)],
	}
}
