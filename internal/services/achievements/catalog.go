package achievements

// Definition — статическое описание достижения.
type Definition struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	BonusXP     int    `json:"bonus_xp"`
}

// Коды достижений.
const (
	CodeStreak7     = "streak_7"
	CodeStreak30    = "streak_30"
	CodeStreak100   = "streak_100"
	CodeFirstPhoto  = "first_photo"
	CodeFirstWeek   = "first_week"
	CodeWorkouts10  = "workouts_10"
	CodeWorkouts50  = "workouts_50"
	CodeWorkouts100 = "workouts_100"
	CodeGoalReached = "goal_reached"
	CodeLevel10     = "level_10"
)

// catalog хранит определения в порядке показа в профиле.
var catalog = []Definition{
	{Code: CodeStreak7, Name: "Неделя без пропусков", Description: "Стрик 7 дней", Icon: "🔥", BonusXP: 100},
	{Code: CodeStreak30, Name: "Месяц дисциплины", Description: "Стрик 30 дней", Icon: "💪", BonusXP: 300},
	{Code: CodeStreak100, Name: "Легенда", Description: "Стрик 100 дней", Icon: "🏆", BonusXP: 500},
	{Code: CodeFirstPhoto, Name: "ИИ-фотограф", Description: "Первый анализ фото", Icon: "📸", BonusXP: 100},
	{Code: CodeFirstWeek, Name: "Первая неделя", Description: "7 дней логирования питания", Icon: "📅", BonusXP: 100},
	{Code: CodeWorkouts10, Name: "Начинающий атлет", Description: "10 тренировок", Icon: "🏃", BonusXP: 100},
	{Code: CodeWorkouts50, Name: "Спортсмен", Description: "50 тренировок", Icon: "🏋️", BonusXP: 200},
	{Code: CodeWorkouts100, Name: "Железный человек", Description: "100 тренировок", Icon: "🦾", BonusXP: 300},
	{Code: CodeGoalReached, Name: "Цель достигнута", Description: "Достиг целевого веса", Icon: "🎯", BonusXP: 500},
	{Code: CodeLevel10, Name: "Про", Description: "Достиг 10 уровня", Icon: "⭐", BonusXP: 300},
}

var byCode = func() map[string]Definition {
	m := make(map[string]Definition, len(catalog))
	for _, d := range catalog {
		m[d.Code] = d
	}
	return m
}()

// Catalog возвращает копию каталога достижений.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup ищет определение по коду.
func Lookup(code string) (Definition, bool) {
	d, ok := byCode[code]
	return d, ok
}

var workoutMilestones = []struct {
	Count int
	Code  string
}{
	{Count: 10, Code: CodeWorkouts10},
	{Count: 50, Code: CodeWorkouts50},
	{Count: 100, Code: CodeWorkouts100},
}
