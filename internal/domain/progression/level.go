package progression

// The level curve has three linear tiers with widening steps:
// levels 1-10 at 100 XP each, 11-26 at 250 XP each, 27+ at 500 XP each.
const (
	tier2StartXP = 1000
	tier3StartXP = 5000
	tier1Step    = 100
	tier2Step    = 250
	tier3Step    = 500
)

// LevelFor derives the level from cumulative XP. XP is the sole ground truth
// for level; the level is never stored independently. Negative input is
// clamped to zero.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	switch {
	case xp < tier2StartXP:
		return xp/tier1Step + 1
	case xp < tier3StartXP:
		return (xp-tier2StartXP)/tier2Step + 11
	default:
		return (xp-tier3StartXP)/tier3Step + 27
	}
}

// XPForNextLevel returns the cumulative XP at which the next level is reached.
func XPForNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	switch {
	case xp < tier2StartXP:
		return (xp/tier1Step + 1) * tier1Step
	case xp < tier3StartXP:
		return tier2StartXP + ((xp-tier2StartXP)/tier2Step+1)*tier2Step
	default:
		return tier3StartXP + ((xp-tier3StartXP)/tier3Step+1)*tier3Step
	}
}

// ProgressPercent reports progress through the current level's XP step as a
// percentage in [0,100).
func ProgressPercent(xp int) float64 {
	if xp < 0 {
		xp = 0
	}
	step := tierStep(xp)
	return float64(xp%step) / float64(step) * 100
}

func tierStep(xp int) int {
	switch {
	case xp < tier2StartXP:
		return tier1Step
	case xp < tier3StartXP:
		return tier2Step
	default:
		return tier3Step
	}
}
