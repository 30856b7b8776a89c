package gamedata

// Difficulty ids follow the classic numbering: 3 = 10 normal,
// 4 = 25 normal, 5 = 10 heroic, 6 = 25 heroic.
const (
	Difficulty10N = 3
	Difficulty25N = 4
	Difficulty10H = 5
	Difficulty25H = 6
)

var difficultyNames = map[int]string{
	Difficulty10N: "10 Normal",
	Difficulty25N: "25 Normal",
	Difficulty10H: "10 Heroic",
	Difficulty25H: "25 Heroic",
}

var difficultySizes = map[int]int{
	Difficulty10N: 10,
	Difficulty25N: 25,
	Difficulty10H: 10,
	Difficulty25H: 25,
}

// Encounter is one boss within a raid. Required encounters count toward
// completion; optional ones do not.
type Encounter struct {
	ID       int
	Name     string
	Required bool
}

// Raid is one raid tier instance.
type Raid struct {
	Name         string
	Difficulties []int
	// Hardest lists the difficulties a completion can be earned at; when
	// more than one qualifies the earliest completion wins.
	Hardest    []int
	Encounters []Encounter
}

var raids = []Raid{
	{
		Name:         "Icecrown Citadel",
		Difficulties: []int{Difficulty10N, Difficulty25N, Difficulty10H, Difficulty25H},
		Hardest:      []int{Difficulty10H, Difficulty25H},
		Encounters: []Encounter{
			{ID: 845, Name: "Lord Marrowgar", Required: true},
			{ID: 846, Name: "Lady Deathwhisper", Required: true},
			{ID: 847, Name: "Icecrown Gunship Battle", Required: true},
			{ID: 848, Name: "Deathbringer Saurfang", Required: true},
			{ID: 849, Name: "Festergut", Required: true},
			{ID: 850, Name: "Rotface", Required: true},
			{ID: 851, Name: "Professor Putricide", Required: true},
			{ID: 852, Name: "Blood Prince Council", Required: true},
			{ID: 853, Name: "Blood-Queen Lana'thel", Required: true},
			{ID: 854, Name: "Valithria Dreamwalker", Required: true},
			{ID: 855, Name: "Sindragosa", Required: true},
			{ID: 856, Name: "The Lich King", Required: true},
		},
	},
	{
		Name:         "The Ruby Sanctum",
		Difficulties: []int{Difficulty10N, Difficulty25N, Difficulty10H, Difficulty25H},
		Hardest:      []int{Difficulty10H, Difficulty25H},
		Encounters: []Encounter{
			{ID: 887, Name: "Halion", Required: true},
		},
	},
}

var encounterIndex = func() map[int]struct {
	Raid      *Raid
	Encounter *Encounter
} {
	idx := make(map[int]struct {
		Raid      *Raid
		Encounter *Encounter
	})
	for i := range raids {
		for j := range raids[i].Encounters {
			idx[raids[i].Encounters[j].ID] = struct {
				Raid      *Raid
				Encounter *Encounter
			}{&raids[i], &raids[i].Encounters[j]}
		}
	}
	return idx
}()

func Raids() []Raid { return raids }

func RaidByName(name string) (*Raid, bool) {
	for i := range raids {
		if raids[i].Name == name {
			return &raids[i], true
		}
	}
	return nil, false
}

// RaidForEncounter resolves the raid and encounter for an encounter id.
func RaidForEncounter(encounterID int) (*Raid, *Encounter, bool) {
	e, ok := encounterIndex[encounterID]
	if !ok {
		return nil, nil, false
	}
	return e.Raid, e.Encounter, true
}

func EncounterName(encounterID int) string {
	if _, e, ok := RaidForEncounter(encounterID); ok {
		return e.Name
	}
	return ""
}

func DifficultyName(d int) string { return difficultyNames[d] }

// RaidSize is the roster size a difficulty is tuned for.
func RaidSize(d int) int { return difficultySizes[d] }

func ValidDifficulty(d int) bool {
	_, ok := difficultySizes[d]
	return ok
}

// RequiredBosses returns the completion-relevant encounters of a raid.
func (r *Raid) RequiredBosses() []Encounter {
	out := make([]Encounter, 0, len(r.Encounters))
	for _, e := range r.Encounters {
		if e.Required {
			out = append(out, e)
		}
	}
	return out
}

// BossNames returns every encounter name in raid order.
func (r *Raid) BossNames() []string {
	out := make([]string, len(r.Encounters))
	for i, e := range r.Encounters {
		out[i] = e.Name
	}
	return out
}
