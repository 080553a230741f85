package emotion

import (
	"math"
	"strings"
)

// emotionKeywords maps each primary emotion to its lexicon.
//
// The lists are fixed: linguistic scoring is meant to be a cheap,
// deterministic signal that the weighted synthesis can blend with voice
// features and external classifier output.
var emotionKeywords = map[Emotion][]string{
	Joy: {
		"happy", "joy", "excited", "great", "wonderful", "amazing",
		"fantastic", "delighted", "thrilled", "glad", "cheerful", "fun",
	},
	Trust: {
		"trust", "reliable", "confident", "secure", "faith", "believe",
		"depend", "comfortable", "safe", "honest",
	},
	Fear: {
		"afraid", "scared", "worried", "anxious", "nervous", "terrified",
		"panic", "dread", "frightened", "uneasy",
	},
	Surprise: {
		"surprised", "shocked", "unexpected", "astonished", "stunned",
		"sudden", "wow", "unbelievable",
	},
	Sadness: {
		"sad", "depressed", "unhappy", "miserable", "down", "grief",
		"lonely", "heartbroken", "disappointed", "hopeless", "crying",
	},
	Disgust: {
		"disgusted", "gross", "awful", "terrible", "horrible", "sick",
		"revolting", "repulsed",
	},
	Anger: {
		"angry", "mad", "furious", "annoyed", "frustrated", "irritated",
		"rage", "outraged", "resentful", "hate",
	},
	Anticipation: {
		"looking forward", "anticipate", "expect", "hope", "eager",
		"soon", "upcoming", "planning", "excited about", "can't wait",
	},
}

// intensifiers boost the following emotion keyword by 1.5x.
var intensifiers = map[string]struct{}{
	"very": {}, "really": {}, "extremely": {}, "so": {}, "incredibly": {},
	"totally": {}, "absolutely": {}, "completely": {}, "deeply": {},
}

// diminishers dampen the following emotion keyword by 0.5x.
var diminishers = map[string]struct{}{
	"slightly": {}, "somewhat": {}, "a": {}, "little": {}, "barely": {},
	"kind": {}, "sort": {}, "mildly": {},
}

// stressPhrases are scanned for the state's stress-indicator list.
var stressPhrases = []string{
	"stressed", "stress", "overwhelmed", "pressure", "deadline",
	"exhausted", "burnout", "too much", "can't keep up", "overworked",
	"anxious", "overtime",
}

// copingPhrases are scanned for the state's coping-mechanism list.
var copingPhrases = []string{
	"meditation", "exercise", "walk", "breathing", "journaling",
	"talked to", "took a break", "slept", "rest", "music",
}

// triggerPhrases are scanned for the state's trigger list.
var triggerPhrases = []string{
	"argument", "fight", "criticism", "rejected", "ignored",
	"failure", "mistake", "conflict", "missed",
}

// scoreLinguistic scores a transcript against the per-emotion lexicons.
//
// Each keyword hit contributes 1.0, multiplied by 1.5 when the preceding
// token is an intensifier and by 0.5 when it is a diminisher. After summing,
// all non-zero emotions are normalized by the total score so the primaries
// sum to at most 1.0, with each value capped at 1.0.
func scoreLinguistic(transcript string) map[Emotion]float64 {
	tokens := strings.Fields(strings.ToLower(transcript))
	lower := strings.ToLower(transcript)

	scores := make(map[Emotion]float64, len(Primaries))
	for _, e := range Primaries {
		scores[e] = 0.0
	}

	for emotion, keywords := range emotionKeywords {
		for _, keyword := range keywords {
			// Multi-word keywords are matched as substrings; single words
			// positionally, so the preceding-token modifier can apply.
			if strings.Contains(keyword, " ") {
				if strings.Contains(lower, keyword) {
					scores[emotion] += 1.0
				}
				continue
			}
			for i, token := range tokens {
				if trimPunct(token) != keyword {
					continue
				}
				weight := 1.0
				if i > 0 {
					prev := trimPunct(tokens[i-1])
					if _, ok := intensifiers[prev]; ok {
						weight = 1.5
					} else if _, ok := diminishers[prev]; ok {
						weight = 0.5
					}
				}
				scores[emotion] += weight
			}
		}
	}

	var total float64
	for _, v := range scores {
		total += v
	}
	if total > 0 {
		for e, v := range scores {
			scores[e] = math.Min(v/total, 1.0)
		}
	}

	return scores
}

// scanPhrases returns the phrases from the list present in the transcript.
func scanPhrases(transcript string, phrases []string) []string {
	lower := strings.ToLower(transcript)
	var found []string
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			found = append(found, p)
		}
	}
	return found
}

// trimPunct strips leading/trailing punctuation from a token.
func trimPunct(token string) string {
	return strings.Trim(token, ".,!?;:'\"()")
}
