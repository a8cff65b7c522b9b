package domain

import "math"

// DailyTargets are the per-day calorie and macro-nutrient goals for a user.
type DailyTargets struct {
	Calories int `json:"calorieGoal"`
	Protein  int `json:"proteinGoal"`
	Carbs    int `json:"carbGoal"`
	Fat      int `json:"fatGoal"`
}

// DefaultTargets is returned for incomplete profiles.
var DefaultTargets = DailyTargets{Calories: 2000, Protein: 150, Carbs: 250, Fat: 65}

const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9

	defaultActivityFactor = 1.55
	maxCalories           = 10000
)

var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary: 1.2,
	ActivityLight:     1.375,
	ActivityModerate:  1.55,
	ActivityActive:    1.725,
	ActivityExtreme:   1.9,
}

// energyRules is evaluated first-match-wins. diet precedes muscle.
var energyRules = []struct {
	goal GoalTag
	mult float64
}{
	{GoalDiet, 0.85},
	{GoalMuscle, 1.10},
}

type macroRatios struct {
	protein, fat, carbs float64
}

// macroRules is evaluated first-match-wins; the male/female split only
// affects protein.
var macroRules = []struct {
	goal                      GoalTag
	proteinMale, proteinOther float64
	fat, carbs                float64
}{
	{GoalMuscle, 0.32, 0.28, 0.20, 0.50},
	{GoalDiet, 0.32, 0.28, 0.25, 0.45},
	{GoalAcne, 0.25, 0.25, 0.30, 0.45},
}

// ComputeDailyTargets maps a profile to daily targets. It never fails:
// a nil or incomplete profile yields DefaultTargets.
func ComputeDailyTargets(p *UserProfile) DailyTargets {
	if !p.Complete() {
		return DefaultTargets
	}
	male := *p.Sex == SexMale

	bmr := 10*(*p.WeightKg) + 6.25*(*p.HeightCm) - 5*(*p.AgeYears)
	if male {
		bmr += 5
	} else {
		bmr -= 161
	}

	tdee := bmr * activityFactor(p.Activity) * energyMultiplier(p.Goals)
	calories := math.Round(tdee)
	calories = math.Max(0, math.Min(calories, maxCalories))

	r := ratiosFor(p.Goals, male)
	return DailyTargets{
		Calories: int(calories),
		Protein:  int(math.Round(calories * r.protein / kcalPerGramProtein)),
		Carbs:    int(math.Round(calories * r.carbs / kcalPerGramCarbs)),
		Fat:      int(math.Round(calories * r.fat / kcalPerGramFat)),
	}
}

func activityFactor(a *ActivityLevel) float64 {
	if a == nil {
		return defaultActivityFactor
	}
	if f, ok := activityFactors[*a]; ok {
		return f
	}
	return defaultActivityFactor
}

func energyMultiplier(goals GoalSet) float64 {
	for _, r := range energyRules {
		if goals.Has(r.goal) {
			return r.mult
		}
	}
	return 1
}

func ratiosFor(goals GoalSet, male bool) macroRatios {
	for _, r := range macroRules {
		if !goals.Has(r.goal) {
			continue
		}
		protein := r.proteinOther
		if male {
			protein = r.proteinMale
		}
		return macroRatios{protein: protein, fat: r.fat, carbs: r.carbs}
	}
	protein := 0.25
	if male {
		protein += 0.02
	}
	return macroRatios{protein: protein, fat: 0.25, carbs: 0.50}
}
