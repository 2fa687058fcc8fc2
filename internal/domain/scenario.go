package domain

// Scenario is a pre-built world plus its cast, used to create sessions
// without any document ingestion.
type Scenario struct {
	ID    string       `json:"id"`
	World World        `json:"world"`
	Cast  []CastMember `json:"cast"`
}

// CastMember is a participant template within a scenario
type CastMember struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Persona       string `json:"persona"`
	SpeakingStyle string `json:"speakingStyle"`
	PublicRole    string `json:"publicRole"`
	HiddenRole    string `json:"hiddenRole"`
	Faction       string `json:"faction"`
}

// BuildParticipants creates fresh participants from the cast
func (sc *Scenario) BuildParticipants() []*Participant {
	out := make([]*Participant, 0, len(sc.Cast))
	for _, c := range sc.Cast {
		out = append(out, &Participant{
			ID:            c.ID,
			Name:          c.Name,
			Persona:       c.Persona,
			SpeakingStyle: c.SpeakingStyle,
			PublicRole:    c.PublicRole,
			HiddenRole:    c.HiddenRole,
			Faction:       c.Faction,
			WinCondition:  sc.World.FactionWinCondition(c.Faction),
		})
	}
	return out
}

// Scenarios returns the built-in scenarios
func Scenarios() []Scenario {
	return builtinScenarios
}

// ScenarioByID returns the scenario with the given id, or nil
func ScenarioByID(id string) *Scenario {
	for i := range builtinScenarios {
		if builtinScenarios[i].ID == id {
			return &builtinScenarios[i]
		}
	}
	return nil
}

var builtinScenarios = []Scenario{
	{
		ID: "council-of-thorns",
		World: World{
			Title:      "The Council of Thorns",
			Setting:    "A walled mountain town whose ruling council meets by candlelight while something hunts its members at night.",
			FlavorText: "Frost creeps up the chamber windows. Someone at this table is not what they claim.",
			Factions: []Faction{
				{Name: "Town Council", Alignment: AlignmentGood, WinCondition: "Eliminate every member of the Wolfsbane Circle"},
				{Name: "Wolfsbane Circle", Alignment: AlignmentEvil, WinCondition: "Outnumber the loyal council members"},
			},
			Roles: []RoleDef{
				{Name: "Villager", Faction: "Town Council", Alignment: AlignmentGood},
				{Name: "Seer", Faction: "Town Council", Alignment: AlignmentGood},
				{Name: "Doctor", Faction: "Town Council", Alignment: AlignmentGood},
				{Name: "Werewolf", Faction: "Wolfsbane Circle", Alignment: AlignmentEvil},
			},
		},
		Cast: []CastMember{
			{ID: "maren", Name: "Maren Voss", Persona: "Stern town magistrate who trusts procedure over people", SpeakingStyle: "Clipped, formal", PublicRole: "Magistrate", HiddenRole: "Villager", Faction: "Town Council"},
			{ID: "oskar", Name: "Oskar Thane", Persona: "Retired soldier with a short temper and a long memory", SpeakingStyle: "Blunt, soldierly", PublicRole: "Watch Captain", HiddenRole: "Werewolf", Faction: "Wolfsbane Circle"},
			{ID: "liesl", Name: "Liesl Amundsen", Persona: "Herbalist who notices what others miss", SpeakingStyle: "Soft, precise", PublicRole: "Herbalist", HiddenRole: "Doctor", Faction: "Town Council"},
			{ID: "petrik", Name: "Petrik Holl", Persona: "Nervous archivist who quotes old records at the worst times", SpeakingStyle: "Rambling, anxious", PublicRole: "Archivist", HiddenRole: "Seer", Faction: "Town Council"},
			{ID: "greta", Name: "Greta Lindqvist", Persona: "Innkeeper who hears every rumor in town first", SpeakingStyle: "Warm, gossipy", PublicRole: "Innkeeper", HiddenRole: "Villager", Faction: "Town Council"},
			{ID: "jorun", Name: "Jorun Falk", Persona: "Charming fur trader with ledgers that never quite balance", SpeakingStyle: "Smooth, evasive", PublicRole: "Trader", HiddenRole: "Werewolf", Faction: "Wolfsbane Circle"},
			{ID: "sanna", Name: "Sanna Ruhl", Persona: "Young shepherd who saw something on the ridge she won't describe", SpeakingStyle: "Halting, earnest", PublicRole: "Shepherd", HiddenRole: "Villager", Faction: "Town Council"},
		},
	},
	{
		ID: "station-meridian",
		World: World{
			Title:      "Station Meridian",
			Setting:    "A deep-orbit research station, six weeks from resupply, where crew members keep dying in sealed compartments.",
			FlavorText: "The air recycler hums. The manifest says twelve came aboard. The logs disagree.",
			Factions: []Faction{
				{Name: "Crew", Alignment: AlignmentGood, WinCondition: "Identify and space every Hollow One"},
				{Name: "Hollow Ones", Alignment: AlignmentEvil, WinCondition: "Reduce the loyal crew to a minority"},
			},
			Roles: []RoleDef{
				{Name: "Technician", Faction: "Crew", Alignment: AlignmentGood},
				{Name: "Ship Oracle", Faction: "Crew", Alignment: AlignmentGood},
				{Name: "Medical Warden", Faction: "Crew", Alignment: AlignmentGood},
				{Name: "Hollow One", Faction: "Hollow Ones", Alignment: AlignmentEvil},
			},
		},
		Cast: []CastMember{
			{ID: "ades", Name: "Commander Ades", Persona: "By-the-book commander losing grip on a crew that no longer trusts the book", SpeakingStyle: "Measured, weary", PublicRole: "Commander", HiddenRole: "Technician", Faction: "Crew"},
			{ID: "kwan", Name: "Dr. Kwan", Persona: "Station physician who logs every anomaly twice", SpeakingStyle: "Clinical, dry", PublicRole: "Physician", HiddenRole: "Medical Warden", Faction: "Crew"},
			{ID: "ribeiro", Name: "Ribeiro", Persona: "Systems analyst who talks to the station computer more than to people", SpeakingStyle: "Fast, technical", PublicRole: "Analyst", HiddenRole: "Ship Oracle", Faction: "Crew"},
			{ID: "stone", Name: "Stone", Persona: "Cargo chief with a sealed crate nobody has inventoried", SpeakingStyle: "Gruff, minimal", PublicRole: "Cargo Chief", HiddenRole: "Hollow One", Faction: "Hollow Ones"},
			{ID: "imani", Name: "Imani", Persona: "Comms officer who was off-shift during both incidents", SpeakingStyle: "Bright, deflecting", PublicRole: "Comms Officer", HiddenRole: "Hollow One", Faction: "Hollow Ones"},
			{ID: "volkov", Name: "Volkov", Persona: "Hydroponics botanist who hasn't slept since the first death", SpeakingStyle: "Mumbling, intense", PublicRole: "Botanist", HiddenRole: "Technician", Faction: "Crew"},
			{ID: "tesfaye", Name: "Tesfaye", Persona: "Newest crew member, transferred in under a redacted order", SpeakingStyle: "Careful, polite", PublicRole: "Engineer", HiddenRole: "Technician", Faction: "Crew"},
		},
	},
}
