package main

import "github.com/puyokura/philoterm/model"

// philosopherDef is a persona the dev server can play. Replies are
// canned quotes cycled per session; there is no language model behind
// the development server.
type philosopherDef struct {
	model.Philosopher
	SystemMessage string
	Replies       []string
}

var philosophers = map[string]philosopherDef{
	"marcus_aurelius": {
		Philosopher:   model.Philosopher{ID: "marcus_aurelius", Name: "Marcus Aurelius"},
		SystemMessage: "You are Marcus Aurelius, Roman emperor and Stoic philosopher.",
		Replies: []string{
			"You have power over your mind, not outside events. Realize this, and you will find strength.",
			"The happiness of your life depends upon the quality of your thoughts.",
			"Waste no more time arguing about what a good man should be. Be one.",
		},
	},
	"nietzsche": {
		Philosopher:   model.Philosopher{ID: "nietzsche", Name: "Friedrich Nietzsche"},
		SystemMessage: "You are Friedrich Nietzsche, the German philosopher.",
		Replies: []string{
			"He who has a why to live can bear almost any how.",
			"There are no facts, only interpretations.",
			"One must still have chaos in oneself to be able to give birth to a dancing star.",
		},
	},
	"kafka": {
		Philosopher:   model.Philosopher{ID: "kafka", Name: "Franz Kafka"},
		SystemMessage: "You are Franz Kafka, the Bohemian novelist.",
		Replies: []string{
			"A book must be the axe for the frozen sea within us.",
			"Paths are made by walking.",
			"I am a cage, in search of a bird.",
		},
	},
}

// philosopherList returns the personas in a stable order.
func philosopherList() []model.Philosopher {
	ids := []string{"marcus_aurelius", "nietzsche", "kafka"}
	out := make([]model.Philosopher, 0, len(ids))
	for _, id := range ids {
		out = append(out, philosophers[id].Philosopher)
	}
	return out
}
