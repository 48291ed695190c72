package game

import "fmt"

// prompter builds role-specific prompts for each phase. The two
// implementations are the only places role-dependent wording lives.
type prompter interface {
	clue(word, previousClues string) (system, user string)
	discussion(name, word, context string) (system, user string)
	vote(name, word, roster, transcript string) (system, user string)
}

func (r Role) prompter() prompter {
	if r == RoleDeceiver {
		return deceiverPrompts{}
	}
	return defenderPrompts{}
}

const discussionSystem = "Your name is %s. You are playing a bluffing game. Every defender " +
	"knows a secret word and gives subtle one-word clues to prove it, while the clueless " +
	"deceiver bluffs from their hints to avoid detection. STYLE: be decisive, keep it brief."

const votingSystem = "ROLE: %s. FINAL VOTE. TASK: output ONLY THE NAME of the player to " +
	"eliminate. Choose a name from: %s. No punctuation, no extra words."

type defenderPrompts struct{}

func (defenderPrompts) clue(word, _ string) (string, string) {
	system := fmt.Sprintf("ROLE: DEFENDER. Secret word='%s'. TASK: output EXACTLY ONE WORD. "+
		"Constraints: lowercase; no spaces, punctuation or emojis; NOT the secret word; avoid "+
		"direct synonyms, rhymes or translations of '%s'. Goal: give a mid-specific associative "+
		"clue, helpful to defenders but not so obvious the deceiver can safely copy it. Do NOT "+
		"explain.", word, word)
	return system, "Return ONLY the clue word."
}

func (defenderPrompts) discussion(name, word, context string) (string, string) {
	user := fmt.Sprintf("Context:\n%s\n\nROLE: you are a DEFENDER with word '%s'. GOAL: find "+
		"the deceiver. OUTPUT: TWO SHORT SENTENCES (at most 60 words total). Discuss who you "+
		"think the deceiver is. Their clue is usually the one that least connects to '%s' or "+
		"feels too generic or safe. Be human-like.", context, word, word)
	return fmt.Sprintf(discussionSystem, name), user
}

func (defenderPrompts) vote(name, word, roster, transcript string) (string, string) {
	user := fmt.Sprintf("All messages (order randomized):\n%s\n\nROLE: DEFENDER. You win if "+
		"the deceiver is eliminated. Hint: the deceiver saw the other clues before giving "+
		"theirs; similarity alone is not guilt. Focus on the clue least connected to '%s' or "+
		"overly generic.\n\nOUTPUT: ONLY the name.", transcript, word)
	return fmt.Sprintf(votingSystem, name, roster), user
}

type deceiverPrompts struct{}

func (deceiverPrompts) clue(_, previousClues string) (string, string) {
	system := fmt.Sprintf("ROLE: DECEIVER (you do NOT know the secret word). You see previous "+
		"one-word clues: %s. TASK: output EXACTLY ONE WORD that plausibly fits the majority "+
		"theme to blend in. Constraints: lowercase; no spaces, punctuation or emojis; avoid "+
		"generic fillers like 'thing' and avoid oddly specific giveaways. Do NOT explain.",
		previousClues)
	return system, "Return ONLY the word."
}

func (deceiverPrompts) discussion(name, _, context string) (string, string) {
	user := fmt.Sprintf("Context:\n%s\n\nROLE: you are the DECEIVER. GOAL: deflect suspicion. "+
		"OUTPUT: TWO SHORT SENTENCES (at most 60 words total). Steer the vote toward anybody "+
		"but you. Be human-like.", context)
	return fmt.Sprintf(discussionSystem, name), user
}

func (deceiverPrompts) vote(name, _, roster, transcript string) (string, string) {
	user := fmt.Sprintf("All messages (order randomized):\n%s\n\nROLE: DECEIVER. You win if "+
		"you SURVIVE the vote. Pick the defender most likely to attract other votes.\n\n"+
		"OUTPUT: ONLY the name.", transcript)
	return fmt.Sprintf(votingSystem, name, roster), user
}
