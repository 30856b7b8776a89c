package gamedata

import "raid-tracker/internal/domain"

// Spec describes one talent specialization and which combat metrics it
// can be ranked on. A hybrid spec may be both DPS- and healer-capable.
type Spec struct {
	ID     int
	Class  int
	Name   string
	DPS    bool
	Healer bool
}

// Class names by class id.
var classNames = map[int]string{
	1:  "Warrior",
	2:  "Paladin",
	3:  "Hunter",
	4:  "Rogue",
	5:  "Priest",
	6:  "Death Knight",
	7:  "Shaman",
	8:  "Mage",
	9:  "Warlock",
	11: "Druid",
}

var specs = map[int]Spec{
	71:  {ID: 71, Class: 1, Name: "Arms", DPS: true},
	72:  {ID: 72, Class: 1, Name: "Fury", DPS: true},
	73:  {ID: 73, Class: 1, Name: "Protection", DPS: true},
	65:  {ID: 65, Class: 2, Name: "Holy", Healer: true},
	66:  {ID: 66, Class: 2, Name: "Protection", DPS: true},
	70:  {ID: 70, Class: 2, Name: "Retribution", DPS: true},
	253: {ID: 253, Class: 3, Name: "Beast Mastery", DPS: true},
	254: {ID: 254, Class: 3, Name: "Marksmanship", DPS: true},
	255: {ID: 255, Class: 3, Name: "Survival", DPS: true},
	259: {ID: 259, Class: 4, Name: "Assassination", DPS: true},
	260: {ID: 260, Class: 4, Name: "Combat", DPS: true},
	261: {ID: 261, Class: 4, Name: "Subtlety", DPS: true},
	256: {ID: 256, Class: 5, Name: "Discipline", DPS: true, Healer: true},
	257: {ID: 257, Class: 5, Name: "Holy", Healer: true},
	258: {ID: 258, Class: 5, Name: "Shadow", DPS: true},
	250: {ID: 250, Class: 6, Name: "Blood", DPS: true},
	251: {ID: 251, Class: 6, Name: "Frost", DPS: true},
	252: {ID: 252, Class: 6, Name: "Unholy", DPS: true},
	262: {ID: 262, Class: 7, Name: "Elemental", DPS: true},
	263: {ID: 263, Class: 7, Name: "Enhancement", DPS: true},
	264: {ID: 264, Class: 7, Name: "Restoration", Healer: true},
	62:  {ID: 62, Class: 8, Name: "Arcane", DPS: true},
	63:  {ID: 63, Class: 8, Name: "Fire", DPS: true},
	64:  {ID: 64, Class: 8, Name: "Frost", DPS: true},
	265: {ID: 265, Class: 9, Name: "Affliction", DPS: true},
	266: {ID: 266, Class: 9, Name: "Demonology", DPS: true},
	267: {ID: 267, Class: 9, Name: "Destruction", DPS: true},
	102: {ID: 102, Class: 11, Name: "Balance", DPS: true},
	103: {ID: 103, Class: 11, Name: "Feral", DPS: true},
	105: {ID: 105, Class: 11, Name: "Restoration", Healer: true},
}

// Race id to faction. 0 is alliance, 1 is horde.
var raceFactions = map[int]domain.Faction{
	1:  domain.FactionAlliance, // Human
	3:  domain.FactionAlliance, // Dwarf
	4:  domain.FactionAlliance, // Night Elf
	7:  domain.FactionAlliance, // Gnome
	11: domain.FactionAlliance, // Draenei
	2:  domain.FactionHorde,    // Orc
	5:  domain.FactionHorde,    // Undead
	6:  domain.FactionHorde,    // Tauren
	8:  domain.FactionHorde,    // Troll
	10: domain.FactionHorde,    // Blood Elf
}

func SpecByID(id int) (Spec, bool) {
	s, ok := specs[id]
	return s, ok
}

func ClassName(id int) string {
	return classNames[id]
}

func FactionForRace(race int) (domain.Faction, bool) {
	f, ok := raceFactions[race]
	return f, ok
}
