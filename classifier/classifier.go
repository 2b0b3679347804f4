package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Intent is the coarse triage outcome for a message.
type Intent int

const (
	// IntentCandidate marks ordinary conversation that may be memorable.
	IntentCandidate Intent = iota

	// IntentExplicitSave marks a direct instruction to remember something.
	IntentExplicitSave

	// IntentGenericRecall marks a pure "do you remember me?" style question
	// with no extractable content of its own.
	IntentGenericRecall
)

// String returns the string representation of the intent.
func (i Intent) String() string {
	switch i {
	case IntentExplicitSave:
		return "explicit_save"
	case IntentGenericRecall:
		return "generic_recall"
	default:
		return "candidate"
	}
}

// Verdict is the result of classifying a single message.
type Verdict struct {
	Intent Intent

	// Memorable is false when the message should never reach the analyzer:
	// greetings, acknowledgements, very short messages, and recall questions
	// that carry no specific content.
	Memorable bool

	// Content is the candidate text to store. For explicit save requests the
	// trigger phrase is stripped from the front; otherwise it is the trimmed
	// message.
	Content string
}

// minMemorableLen is the minimum trimmed length for a message to be
// considered at all.
const minMemorableLen = 15

// saveTriggers are explicit remember/save instructions in both languages.
// Matching is case-insensitive against the start of the message or anywhere
// within it; when matched at the start the trigger is stripped to produce
// the candidate content.
var saveTriggers = []string{
	"bunu hatırla",
	"bunu kaydet",
	"bunu unutma",
	"şunu hatırla",
	"hatırlamanı istiyorum",
	"bana böyle hitap et",
	"bana bundan sonra",
	"bundan böyle bana",
	"remember this",
	"remember that",
	"save this",
	"don't forget",
	"do not forget",
	"from now on call me",
	"i want you to remember",
	"i want you to call me",
}

// recallPhrases identify generic memory-recall questions.
var recallPhrases = []string{
	"hatırlıyor musun",
	"beni hatırladın mı",
	"hakkımda ne biliyorsun",
	"hakkımda neler hatırlıyorsun",
	"do you remember",
	"what do you know about me",
	"what do you remember about me",
}

// smallTalk covers greetings and acknowledgements that are never memorable,
// compared case-insensitively against the whole trimmed message.
var smallTalk = map[string]struct{}{
	"ok":        {},
	"okay":      {},
	"tamam":     {},
	"tamamdır":  {},
	"peki":      {},
	"evet":      {},
	"hayır":     {},
	"merhaba":   {},
	"selam":     {},
	"günaydın":  {},
	"iyi":       {},
	"hi":        {},
	"hello":     {},
	"hey":       {},
	"yes":       {},
	"no":        {},
	"thanks":    {},
	"thank you": {},
	"teşekkür":  {},
	"teşekkürler": {},
	"sağol":     {},
	"görüşürüz": {},
	"bye":       {},
}

// scaffoldWords are query-scaffolding words ignored by the specific-content
// probe on recall questions.
var scaffoldWords = map[string]struct{}{
	"remember":    {},
	"about":       {},
	"what":        {},
	"know":        {},
	"things":      {},
	"hatırlıyor":  {},
	"hatırladın":  {},
	"musun":       {},
	"hakkımda":    {},
	"biliyorsun":  {},
	"neler":       {},
	"söylemiştim": {},
	"demiştim":    {},
}

// Classify triages a message without any network call.
func Classify(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if content, ok := matchSaveTrigger(trimmed, lower); ok {
		return Verdict{Intent: IntentExplicitSave, Memorable: true, Content: content}
	}

	if containsRecallPhrase(lower) {
		// A recall question can still smuggle in new information ("do you
		// remember my sister Ayşe?"). Promote those back to candidates.
		if HasSpecificContent(trimmed) {
			return Verdict{Intent: IntentCandidate, Memorable: true, Content: trimmed}
		}
		return Verdict{Intent: IntentGenericRecall, Memorable: false, Content: trimmed}
	}

	if isLowValue(trimmed, lower) {
		return Verdict{Intent: IntentCandidate, Memorable: false, Content: trimmed}
	}

	return Verdict{Intent: IntentCandidate, Memorable: true, Content: trimmed}
}

// matchSaveTrigger reports whether the message contains an explicit save
// instruction. When the trigger opens the message it is stripped, along with
// any following punctuation, to produce the content to store.
func matchSaveTrigger(trimmed, lower string) (string, bool) {
	for _, trigger := range saveTriggers {
		idx := strings.Index(lower, trigger)
		if idx < 0 {
			continue
		}
		if idx == 0 {
			// Lowercasing can change byte lengths (İ is two bytes, its
			// lowercase i is one), so strip by rune count, not byte count.
			runes := []rune(trimmed)
			n := utf8.RuneCountInString(trigger)
			rest := strings.TrimLeft(string(runes[n:]), " :,.;-")
			if rest == "" {
				rest = trimmed
			}
			return rest, true
		}
		return trimmed, true
	}
	return "", false
}

func containsRecallPhrase(lower string) bool {
	for _, phrase := range recallPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func isLowValue(trimmed, lower string) bool {
	if len([]rune(trimmed)) < minMemorableLen {
		return true
	}
	_, ok := smallTalk[strings.TrimRight(lower, "!. ")]
	return ok
}

// HasSpecificContent applies the proper-noun heuristic: a capitalized word of
// three or more letters, or any word of five or more letters that is not
// query scaffolding, suggests the message carries real information.
func HasSpecificContent(text string) bool {
	words := strings.Fields(text)
	for i, word := range words {
		cleaned := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		runes := []rune(cleaned)
		if len(runes) == 0 {
			continue
		}
		// Sentence-initial capitalization is not a proper-noun signal.
		if i > 0 && len(runes) >= 3 && unicode.IsUpper(runes[0]) {
			return true
		}
		if len(runes) >= 5 {
			if _, ok := scaffoldWords[strings.ToLower(cleaned)]; !ok {
				return true
			}
		}
	}
	return false
}
