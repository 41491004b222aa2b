package lexicon

// Builtin returns a fresh copy of the hand-tuned lexicon for short,
// informal check-in text. Weights sit roughly in [-2.6, 2.5].
func Builtin() Set {
	return Set{
		Positive:     append([]Entry(nil), builtinPositive...),
		Negative:     append([]Entry(nil), builtinNegative...),
		Intensifiers: append([]Entry(nil), builtinIntensifiers...),
		Negations:    append([]string(nil), builtinNegations...),
	}
}

var builtinPositive = []Entry{
	// Phrases
	{"light at the end of the tunnel", 2.2},
	{"falling into place", 2.0},
	{"over the moon", 2.5},
	{"on cloud nine", 2.4},
	{"so far so good", 1.8},
	{"turned a corner", 1.9},
	{"peace of mind", 1.8},
	{"silver lining", 1.4},
	{"big fat positive", 2.5},
	{"positive result", 2.3},
	{"positive test", 2.2},
	{"stay positive", 1.8},
	{"feeling better", 1.9},
	{"looking forward", 1.7},
	{"best news", 2.5},
	{"good news", 2.2},
	{"great news", 2.4},
	{"going well", 1.8},
	{"on track", 1.4},
	{"thumbs up", 1.6},
	{"feel supported", 1.9},

	// Words
	{"happy", 2.0},
	{"happier", 2.1},
	{"happiest", 2.4},
	{"excited", 2.2},
	{"exciting", 2.1},
	{"hopeful", 1.8},
	{"hope", 1.6},
	{"hoping", 1.3},
	{"grateful", 2.1},
	{"thankful", 2.0},
	{"gratitude", 2.0},
	{"blessed", 2.1},
	{"amazing", 2.4},
	{"wonderful", 2.3},
	{"great", 1.9},
	{"good", 1.6},
	{"better", 1.4},
	{"best", 2.2},
	{"perfect", 2.3},
	{"love", 2.3},
	{"loved", 2.2},
	{"loving", 2.0},
	{"lovely", 2.0},
	{"thrilled", 2.4},
	{"optimistic", 1.9},
	{"empowered", 1.9},
	{"confident", 1.8},
	{"strong", 1.5},
	{"stronger", 1.6},
	{"positive", 1.6},
	{"progress", 1.3},
	{"support", 1.2},
	{"supported", 1.6},
	{"supportive", 1.6},
	{"miracle", 2.2},
	{"joy", 2.3},
	{"joyful", 2.3},
	{"calm", 1.3},
	{"relieved", 1.8},
	{"relief", 1.7},
	{"proud", 1.9},
	{"encouraged", 1.7},
	{"encouraging", 1.7},
	{"motivated", 1.6},
	{"peaceful", 1.6},
	{"content", 1.2},
	{"glad", 1.7},
	{"delighted", 2.3},
	{"fantastic", 2.4},
	{"excellent", 2.3},
	{"awesome", 2.3},
	{"beautiful", 2.0},
	{"incredible", 2.3},
	{"amazed", 2.1},
	{"success", 2.0},
	{"successful", 2.1},
	{"celebrate", 2.2},
	{"celebrating", 2.2},
	{"smile", 1.7},
	{"smiling", 1.8},
	{"nice", 1.5},
	{"lucky", 1.8},
	{"inspired", 1.9},
	{"brave", 1.6},
	{"resilient", 1.7},
	{"healing", 1.4},
	{"rested", 1.2},
	{"energized", 1.9},
	{"energy", 0.8},
	{"improving", 1.4},
	{"improved", 1.5},
	{"comfortable", 1.3},
	{"safe", 1.2},
	{"ready", 1.1},
	{"determined", 1.5},
	{"cheerful", 2.0},
	{"pleased", 1.8},
	{"satisfied", 1.6},
	{"enjoy", 1.7},
	{"enjoyed", 1.8},
	{"fun", 1.7},
	{"yay", 2.0},
	{"wow", 1.5},
	{"bfp", 2.4},
	{"fine", 0.8},
	{"okay", 0.6},
	{"ok", 0.6},
	{"managing", 0.4},
}

var builtinNegative = []Entry{
	// Phrases
	{"hard to stay positive", -2.2},
	{"what's the point", -1.9},
	{"big fat negative", -2.5},
	{"chemical pregnancy", -2.4},
	{"negative result", -2.3},
	{"negative test", -2.1},
	{"failed cycle", -2.5},
	{"can't handle", -2.1},
	{"cannot handle", -2.1},
	{"cant handle", -2.1},
	{"can't sleep", -1.5},
	{"cant sleep", -1.5},
	{"losing hope", -2.4},
	{"lost hope", -2.4},
	{"no hope", -2.4},
	{"giving up", -2.2},
	{"give up", -2.1},
	{"falling apart", -2.3},
	{"breaking down", -2.2},
	{"heart broken", -2.5},
	{"bad news", -2.2},
	{"stressed out", -2.0},
	{"freaking out", -1.9},
	{"burned out", -2.1},
	{"burnt out", -2.1},
	{"worn out", -1.8},
	{"fed up", -1.9},
	{"let down", -1.8},
	{"all alone", -2.0},
	{"not okay", -1.6},
	{"not good", -1.8},
	{"too much", -1.3},
	{"on edge", -1.5},

	// Words
	{"sad", -1.9},
	{"sadness", -2.0},
	{"unhappy", -2.0},
	{"depressed", -2.4},
	{"depressing", -2.2},
	{"anxious", -1.9},
	{"anxiety", -1.9},
	{"worried", -1.7},
	{"worry", -1.6},
	{"worrying", -1.7},
	{"scared", -2.0},
	{"afraid", -1.9},
	{"fear", -1.9},
	{"nervous", -1.4},
	{"stressed", -1.9},
	{"stress", -1.8},
	{"stressful", -1.9},
	{"overwhelmed", -2.1},
	{"overwhelming", -2.0},
	{"exhausted", -2.0},
	{"exhausting", -2.0},
	{"tired", -1.3},
	{"drained", -1.9},
	{"disappointed", -2.1},
	{"disappointing", -2.1},
	{"disappointment", -2.1},
	{"setback", -1.7},
	{"setbacks", -1.7},
	{"failed", -2.2},
	{"failure", -2.3},
	{"fail", -2.0},
	{"defeated", -2.2},
	{"hopeless", -2.4},
	{"helpless", -2.2},
	{"heartbroken", -2.6},
	{"devastated", -2.6},
	{"crushed", -2.3},
	{"terrible", -2.5},
	{"awful", -2.4},
	{"horrible", -2.5},
	{"bad", -1.8},
	{"worse", -2.0},
	{"worst", -2.5},
	{"wrong", -1.6},
	{"frustrated", -2.0},
	{"frustrating", -2.0},
	{"angry", -2.1},
	{"upset", -1.9},
	{"hurt", -1.9},
	{"pain", -1.8},
	{"painful", -2.0},
	{"cry", -1.7},
	{"crying", -1.9},
	{"cried", -1.8},
	{"tears", -1.5},
	{"lonely", -2.0},
	{"alone", -1.5},
	{"isolated", -1.9},
	{"lost", -1.6},
	{"losing", -1.6},
	{"loss", -2.0},
	{"grief", -2.3},
	{"grieving", -2.3},
	{"miscarriage", -2.6},
	{"struggling", -1.9},
	{"struggle", -1.8},
	{"difficult", -1.6},
	{"challenging", -1.3},
	{"hard", -1.2},
	{"tough", -1.2},
	{"rough", -1.5},
	{"miserable", -2.4},
	{"numb", -1.6},
	{"broken", -2.1},
	{"sick", -1.6},
	{"nauseous", -1.3},
	{"bloated", -0.9},
	{"cramping", -1.0},
	{"confused", -1.2},
	{"uncertain", -1.1},
	{"doubt", -1.3},
	{"jealous", -1.6},
	{"guilty", -1.8},
	{"ashamed", -2.0},
	{"panic", -2.2},
	{"panicking", -2.2},
	{"dread", -2.0},
	{"hate", -2.4},
	{"unfair", -1.8},
	{"negative", -1.6},
	{"bfn", -2.3},
	{"cancelled", -1.7},
	{"canceled", -1.7},
	{"delays", -1.0},
	{"delay", -1.0},
	{"delayed", -1.1},
}

var builtinIntensifiers = []Entry{
	{"very", 1.3},
	{"really", 1.3},
	{"so", 1.3},
	{"super", 1.3},
	{"truly", 1.3},
	{"highly", 1.3},
	{"totally", 1.4},
	{"completely", 1.4},
	{"deeply", 1.4},
	{"extremely", 1.5},
	{"absolutely", 1.5},
	{"incredibly", 1.5},
	{"exceptionally", 1.5},
	{"utterly", 1.5},
	{"insanely", 1.6},
	{"most", 1.2},
	{"too", 1.2},
	{"especially", 1.2},
	{"genuinely", 1.2},
	{"quite", 1.1},
	{"pretty", 1.1},
}

// Contractions are split by the tokenizer ("don't" → "don", "t"), so the
// stems are listed alongside the apostrophe-free spellings.
var builtinNegations = []string{
	"not", "no", "never", "none", "nobody", "nothing", "neither", "nor",
	"nowhere", "without", "hardly", "barely", "scarcely", "cannot",
	"cant", "dont", "doesnt", "didnt", "isnt", "wasnt", "arent", "werent",
	"wont", "wouldnt", "shouldnt", "couldnt", "hasnt", "havent", "hadnt", "aint",
	"don", "doesn", "didn", "isn", "wasn", "aren", "weren", "wouldn",
	"shouldn", "couldn", "hasn", "haven", "hadn",
}
