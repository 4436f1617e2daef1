package otc

// dictionary maps every byte value to one speakable word. The table is
// bijective: words are unique, so a phrase maps back to exactly one byte
// string. Indexed by byte value, 16 words per row of the high nibble.
var dictionary = [256]string{
	// 0x00
	"aardvark", "absurd", "accrue", "acme", "adrift", "adult", "afflict", "ahead",
	"aimless", "algol", "allow", "alone", "ammo", "ancient", "apple", "artist",
	// 0x10
	"assume", "athens", "atlas", "aztec", "baboon", "backfield", "backward", "banjo",
	"beaming", "bedlamp", "beehive", "beeswax", "befriend", "belfast", "berserk", "billiard",
	// 0x20
	"bison", "blackjack", "blockade", "blowtorch", "bluebird", "bodyguard", "bookseller", "borderline",
	"bottomless", "bradbury", "bravado", "brazilian", "breakaway", "burlington", "businessman", "butterfat",
	// 0x30
	"camelot", "candidate", "cannonball", "capricorn", "caravan", "caretaker", "celebrate", "cellulose",
	"certify", "chambermaid", "cherokee", "chicago", "clergyman", "coherence", "combustion", "commando",
	// 0x40
	"company", "component", "concurrent", "confidence", "conformist", "congregate", "consensus", "consulting",
	"corporate", "corrosion", "councilman", "crossover", "crucifix", "cumbersome", "customer", "dakota",
	// 0x50
	"decadence", "december", "decimal", "designing", "detector", "detergent", "determine", "dictator",
	"dinosaur", "direction", "disable", "disbelief", "disruptive", "distortion", "document", "embezzle",
	// 0x60
	"enchanting", "enrollment", "enterprise", "equation", "equipment", "escapade", "eskimo", "everyday",
	"examine", "existence", "exodus", "fascinate", "filament", "finicky", "forever", "fortitude",
	// 0x70
	"frequency", "gadgetry", "galveston", "getaway", "glossary", "gossamer", "graduate", "gravity",
	"guitarist", "hamburger", "hamilton", "handiwork", "hazardous", "headwaters", "hemisphere", "hesitate",
	// 0x80
	"hideaway", "holiness", "hurricane", "hydraulic", "impartial", "impetus", "inception", "indigo",
	"inertia", "infancy", "inferno", "informant", "insincere", "insurgent", "integrate", "intention",
	// 0x90
	"inventive", "istanbul", "jamaica", "jupiter", "leprosy", "letterhead", "liberty", "maritime",
	"matchmaker", "maverick", "medusa", "megaton", "microscope", "microwave", "midsummer", "millionaire",
	// 0xa0
	"miracle", "misnomer", "molasses", "molecule", "montana", "monument", "mosquito", "narrative",
	"nebula", "newsletter", "norwegian", "october", "ohio", "onlooker", "opulent", "orlando",
	// 0xb0
	"outfielder", "pacific", "pandemic", "pandora", "paperweight", "paragon", "paragraph", "paramount",
	"passenger", "pedigree", "pegasus", "penetrate", "perceptive", "performance", "pharmacy", "phonetic",
	// 0xc0
	"photograph", "pioneer", "pocketful", "politeness", "positive", "potato", "processor", "provincial",
	"proximate", "puberty", "publisher", "pyramid", "quantity", "racketeer", "rebellion", "recipe",
	// 0xd0
	"recover", "repellent", "replica", "reproduce", "resistor", "responsive", "retraction", "retrieval",
	"retrospect", "revenue", "revival", "revolver", "sandalwood", "sardonic", "saturday", "savagery",
	// 0xe0
	"scavenger", "sensation", "sociable", "souvenir", "specialist", "speculate", "stethoscope", "stupendous",
	"supportive", "surrender", "suspicious", "sympathy", "tambourine", "telephone", "therapist", "tobacco",
	// 0xf0
	"tolerance", "tomorrow", "torpedo", "tradition", "travesty", "trombonist", "truncated", "typewriter",
	"ultimate", "undaunted", "underfoot", "unicorn", "unify", "universe", "unravel", "upcoming",
}

// wordIndex is the inverse of dictionary, built once at init.
var wordIndex = func() map[string]byte {
	m := make(map[string]byte, len(dictionary))
	for i, w := range dictionary {
		m[w] = byte(i)
	}
	return m
}()
