package studypal

// stopwords holds English and Russian function words plus common speech
// fillers. Words in this set never become block title keywords.
var stopwords = make(map[string]struct{})

func init() {
	for _, w := range [...]string{
		// English
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
		"you", "your", "yours", "yourself", "yourselves",
		"he", "him", "his", "himself", "she", "her", "hers", "herself",
		"it", "its", "itself", "they", "them", "their", "theirs", "themselves",
		"what", "which", "who", "whom", "this", "that", "these", "those",
		"am", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "having", "do", "does", "did", "doing",
		"a", "an", "the", "and", "but", "if", "or", "because", "as",
		"until", "while", "of", "at", "by", "for", "with", "about",
		"against", "between", "into", "through", "during", "before",
		"after", "above", "below", "to", "from", "up", "down", "in",
		"out", "on", "off", "over", "under", "again", "further", "then",
		"once", "here", "there", "when", "where", "why", "how", "all",
		"any", "both", "each", "few", "more", "most", "other", "some",
		"such", "no", "nor", "not", "only", "own", "same", "so", "than",
		"too", "very", "can", "will", "just", "don", "should", "now",
		// Russian
		"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как",
		"а", "то", "все", "она", "так", "его", "но", "да", "ты", "к",
		"у", "же", "вы", "за", "бы", "по", "только", "ее", "мне", "было",
		"вот", "от", "меня", "еще", "нет", "о", "из", "ему", "теперь",
		"когда", "даже", "ну", "вдруг", "ли", "если", "уже", "или", "ни",
		"быть", "был", "него", "до", "вас", "нибудь", "опять", "уж",
		"вам", "ведь", "там", "потом", "себя", "ничего", "ей", "может",
		"они", "тут", "где", "есть", "надо", "ней", "для", "мы", "тебя",
		"их", "чем", "была", "сам", "чтоб", "без", "будто", "чего",
		"раз", "тоже", "себе", "под", "будет", "тогда", "кто", "этот",
		"это", "эта", "эти", "чтобы",
		// Speech fillers
		"like", "um", "uh", "yeah", "okay", "right", "know", "going",
		"gonna", "really", "actually", "basically", "well", "thing",
		"things", "get", "got", "one", "two", "see", "let", "lets",
		"значит", "типа", "короче", "вообще", "просто", "кстати",
		"давайте", "давай", "сейчас", "здесь",
	} {
		stopwords[w] = struct{}{}
	}
}
