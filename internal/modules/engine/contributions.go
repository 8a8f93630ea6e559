package engine

// Contributions resolves the per-asset volatility contributions. Every
// asset starts from its static contribution; for a momentum index the
// ranked assets are then overwritten with the table entry of the rank
// they earned, so rank 0 (the best performer) receives the first entry.
//
// The ranking slice must come from Rank over the same configuration: its
// length equals the rank table's and its Asset fields index the static
// contributions.
func Contributions(cfg IndexConfig, ranking []RankedPerformance) []float64 {
	out := make([]float64, len(cfg.StaticContributions))
	copy(out, cfg.StaticContributions)

	if !cfg.IsMomentumIndex {
		return out
	}
	for rank, rp := range ranking {
		out[rp.Asset] = cfg.RankToContributionTable[rank]
	}
	return out
}
