package domain

// Activity is a named extracurricular offering with its schedule, capacity and roster.
// Participants are kept in signup order.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SpotsLeft reports remaining capacity; it goes negative when a roster is over capacity.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

func (a Activity) clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

func (a Activity) hasParticipant(email string) bool {
	return indexOf(a.Participants, email) >= 0
}

func indexOf(participants []string, email string) int {
	for i, p := range participants {
		if p == email {
			return i
		}
	}
	return -1
}

// SeedCatalog returns a fresh copy of the activities offered at process start.
func SeedCatalog() map[string]Activity {
	return map[string]Activity{
		"Chess Club": {
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		"Programming Class": {
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		"Gym Class": {
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
		"Basketball Club": {
			Description:     "Team-based basketball practice and competitive games",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 15,
			Participants:    []string{"alex@mergington.edu"},
		},
		"Tennis Club": {
			Description:     "Learn tennis skills and compete in tournaments",
			Schedule:        "Mondays and Wednesdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 10,
			Participants:    []string{"james@mergington.edu", "sarah@mergington.edu"},
		},
		"Drama Club": {
			Description:     "Perform in theatrical productions and improve acting skills",
			Schedule:        "Wednesdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 25,
			Participants:    []string{"mia@mergington.edu", "lucas@mergington.edu"},
		},
		"Art Club": {
			Description:     "Explore various art mediums and create visual masterpieces",
			Schedule:        "Thursdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 20,
			Participants:    []string{"ava@mergington.edu"},
		},
		"Debate Club": {
			Description:     "Develop public speaking and argumentation skills through structured debates",
			Schedule:        "Fridays, 3:30 PM - 4:30 PM",
			MaxParticipants: 18,
			Participants:    []string{"noah@mergington.edu", "isabella@mergington.edu"},
		},
		"Science Club": {
			Description:     "Conduct experiments and explore scientific concepts through hands-on projects",
			Schedule:        "Tuesdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 24,
			Participants:    []string{"ethan@mergington.edu"},
		},
	}
}
