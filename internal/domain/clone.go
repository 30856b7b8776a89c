package domain

// Clone returns a deep copy. Merges operate on a copy so a failed cycle
// never leaves a half-mutated prior aggregate behind.
func (a *RaidBossAggregate) Clone() *RaidBossAggregate {
	if a == nil {
		return nil
	}
	out := *a
	out.RecentKills = append([]TrimmedKill(nil), a.RecentKills...)
	out.FastestKills = cloneKillLists(a.FastestKills)
	out.FirstKills = cloneKillLists(a.FirstKills)
	out.Performers = make([]PerformerCategory, len(a.Performers))
	for i, c := range a.Performers {
		c.Entries = append([]CharacterPerformanceRecord(nil), c.Entries...)
		out.Performers[i] = c
	}
	out.OverallBest = make(map[string]*CharacterPerformanceRecord, len(a.OverallBest))
	for k, v := range a.OverallBest {
		if v != nil {
			cp := *v
			out.OverallBest[k] = &cp
		}
	}
	return &out
}

// Clone returns a deep copy of the guild aggregate.
func (g *GuildAggregate) Clone() *GuildAggregate {
	if g == nil {
		return nil
	}
	out := *g
	out.Roster = append([]string(nil), g.Roster...)
	out.LastActivity = append([]DifficultyActivity(nil), g.LastActivity...)
	out.RecentKills = append([]TrimmedKill(nil), g.RecentKills...)
	out.Completion = append([]CompletionSummary(nil), g.Completion...)
	out.ContentComplete = append([]RaidCompletion(nil), g.ContentComplete...)
	out.Ranking.FastestClears = append([]RaidClear(nil), g.Ranking.FastestClears...)
	out.Ranking.WeekClears = append([]WeekClear(nil), g.Ranking.WeekClears...)

	out.Progression = make([]RaidProgress, len(g.Progression))
	for i, rp := range g.Progression {
		diffs := make([]DifficultyProgress, len(rp.Difficulties))
		for j, dp := range rp.Difficulties {
			bosses := make([]BossProgress, len(dp.Bosses))
			for k, bp := range dp.Bosses {
				bp.FastestKills = append([]TrimmedKill(nil), bp.FastestKills...)
				bp.BestDPS = append([]GuildPerformer(nil), bp.BestDPS...)
				bp.BestHPS = append([]GuildPerformer(nil), bp.BestHPS...)
				bosses[k] = bp
			}
			dp.Bosses = bosses
			diffs[j] = dp
		}
		rp.Difficulties = diffs
		out.Progression[i] = rp
	}
	return &out
}

func cloneKillLists(in []KillListCategory) []KillListCategory {
	out := make([]KillListCategory, len(in))
	for i, c := range in {
		c.Kills = append([]TrimmedKill(nil), c.Kills...)
		out[i] = c
	}
	return out
}
