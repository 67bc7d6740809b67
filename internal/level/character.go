package level

// Character is the kung-fu mascot attached to a tier. Pure display data,
// carried through to clients for the level-up celebration.
type Character struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Emoji         string `json:"emoji"`
	Avatar        string `json:"avatar"`
	Description   string `json:"description"`
	CatchPhrase   string `json:"catch_phrase"`
	UnlockMessage string `json:"unlock_message"`
}

var characters = map[Tier]Character{
	TierApprenti: {
		ID:            "apprenti",
		Name:          "Jeune Panda",
		Emoji:         "🐼",
		Avatar:        "👶",
		Description:   "Un apprenti kung fu enthousiaste qui apprend les bases du nettoyage",
		CatchPhrase:   "Chaque mouvement compte, chaque tâche enseigne !",
		UnlockMessage: "Bienvenue dans le dojo CleanQuest ! Le Jeune Panda va t'enseigner les premières formes.",
	},
	TierRegulier: {
		ID:            "regulier",
		Name:          "Guerrier Tigre",
		Emoji:         "🐅",
		Avatar:        "👨‍🔧",
		Description:   "Un combattant aguerri qui maîtrise les techniques intermédiaires",
		CatchPhrase:   "La force vient de la répétition, la maîtrise de la constance !",
		UnlockMessage: "Excellent ! Le Guerrier Tigre reconnaît ta progression.",
	},
	TierMaitre: {
		ID:            "maitre",
		Name:          "Maître Dragon",
		Emoji:         "🐉",
		Avatar:        "🧙‍♂️",
		Description:   "Le sage maître qui connaît tous les secrets des arts martiaux du nettoyage",
		CatchPhrase:   "L'harmonie parfaite entre l'esprit et l'action !",
		UnlockMessage: "Incroyable ! Le Maître Dragon t'accepte comme disciple avancé.",
	},
	TierLegende: {
		ID:            "legende",
		Name:          "Phénix Immortel",
		Emoji:         "🔥",
		Avatar:        "🌟",
		Description:   "L'être légendaire qui transcende tous les arts martiaux",
		CatchPhrase:   "Par le feu de la purification, l'âme atteint la perfection !",
		UnlockMessage: "LÉGENDAIRE ! Le Phénix Immortel renaît pour te guider.",
	},
}

// CharacterFor returns the mascot for a tier.
func CharacterFor(t Tier) (Character, bool) {
	c, ok := characters[t]
	return c, ok
}
