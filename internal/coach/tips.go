package coach

import (
	"fmt"
	"sync/atomic"

	"github.com/gmsas95/quitcoach/internal/coach/patterns"
)

// TipGenerator selects nudge content for an allowed intervention. The
// implementation is chosen once at construction; the scorer and scheduler
// never know which is active.
type TipGenerator interface {
	TipFor(v FeatureVector, insights []patterns.Insight) string
}

// TemplateTips picks from fixed template pools keyed on the moment's
// dominant feature. The rotation counter is atomic: the HTTP decide
// handler and the cron sweep share one generator.
type TemplateTips struct {
	counter atomic.Int64
}

// NewTemplateTips returns the templated fallback generator.
func NewTemplateTips() *TemplateTips {
	return &TemplateTips{}
}

var (
	postEventTips = []string{
		"The urge after a cigarette fades fastest in the first 10 minutes. Drink a glass of water and ride it out.",
		"Right after smoking is when the next craving plants itself. A short walk resets it.",
	}
	lowActivityTips = []string{
		"You've been still for a while. Five minutes of movement cuts craving intensity measurably.",
		"A quick stretch or stairs break works against the urge better than willpower alone.",
	}
	poorSleepTips = []string{
		"Rough night makes cravings louder. Plan your next two hours before the urge decides for you.",
		"Low sleep lowers impulse control. Keep gum or a toothpick within reach today.",
	}
	generalTips = []string{
		"Cravings crest and pass within about 3 minutes. Set a timer and watch this one go.",
		"Four slow breaths, out longer than in. It works on the same nerves the cigarette would.",
		"Text someone who knows you're quitting. Saying it out loud deflates the urge.",
	}
)

func (t *TemplateTips) TipFor(v FeatureVector, insights []patterns.Insight) string {
	n := t.counter.Add(1)

	pool := generalTips
	switch {
	case v.MinutesSinceLastEvent < 120:
		pool = postEventTips
	case v.PoorSleep:
		pool = poorSleepTips
	case v.RecentActivityLevel < 1000:
		pool = lowActivityTips
	}

	return pool[int(n)%len(pool)]
}

// PersonalizedTips folds the strongest behavioral insight into the template
// choice, falling back to the plain templates when no insight applies.
type PersonalizedTips struct {
	fallback *TemplateTips
}

// NewPersonalizedTips returns the insight-aware generator.
func NewPersonalizedTips() *PersonalizedTips {
	return &PersonalizedTips{fallback: NewTemplateTips()}
}

func (t *PersonalizedTips) TipFor(v FeatureVector, insights []patterns.Insight) string {
	if len(insights) == 0 {
		return t.fallback.TipFor(v, nil)
	}

	top := insights[0]
	switch top.Category {
	case patterns.CategoryTimeOfDay:
		return fmt.Sprintf("This is usually a high-risk hour for you. %s", t.fallback.TipFor(v, nil))
	case patterns.CategorySocialInfluence:
		return "Social situations are your biggest trigger. Decide now what you'll say when someone offers."
	case patterns.CategoryTrigger:
		return fmt.Sprintf("%s: that pattern is back. Swap the ritual, not just the cigarette.", top.Title)
	case patterns.CategoryStreakRelapse:
		return "Your longest slips started in moments like this one. You know how this plays out. Break the script."
	case patterns.CategoryEnvironmental:
		return fmt.Sprintf("%s. Change rooms for ten minutes; location is half the habit.", top.Title)
	case patterns.CategoryRegression:
		return "This week has been heavier than last. One skipped cigarette right now bends the curve back."
	default:
		return t.fallback.TipFor(v, nil)
	}
}
