package lexical

import (
	"fmt"

	"github.com/hrygo/contextsense/ai/configloader"
	"github.com/hrygo/contextsense/ai/types"
)

// Lexicon is the curated vocabulary the classifier is compiled from.
// Keywords are folded (lower-cased, accents stripped) at compile time, so either
// spelling works in YAML overrides.
type Lexicon struct {
	Positive      []string     `yaml:"positive"`
	Negative      []string     `yaml:"negative"`
	Intents       []IntentRule `yaml:"intents"` // evaluated in order, first match wins
	Tones         []ToneRule   `yaml:"tones"`   // order breaks score ties
	Colors        []string     `yaml:"colors"`
	Clothing      []string     `yaml:"clothing"`
	Polite        []string     `yaml:"polite"`
	Informal      []string     `yaml:"informal"`
	Commanding    []string     `yaml:"commanding"`
	Urgent        []string     `yaml:"urgent"`
	NameStopwords []string     `yaml:"name_stopwords"`
}

// IntentRule maps any of its keywords to an intent.
type IntentRule struct {
	Intent   types.Intent `yaml:"intent"`
	Keywords []string     `yaml:"keywords"`
}

// ToneRule scores a tone by the summed weight of matched keywords.
type ToneRule struct {
	Tone     types.EmotionalTone `yaml:"tone"`
	Keywords []WeightedKeyword   `yaml:"keywords"`
}

// WeightedKeyword is a keyword and its contribution to a tone score.
type WeightedKeyword struct {
	Keyword string  `yaml:"keyword"`
	Weight  float64 `yaml:"weight"`
}

// LoadLexicon reads a YAML lexicon through the loader. Sections missing from the
// file keep their default contents.
func LoadLexicon(loader *configloader.Loader, path string) (Lexicon, error) {
	var lex Lexicon
	if err := loader.Load(path, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("load lexicon: %w", err)
	}
	return lex.withDefaults(), nil
}

func (l Lexicon) withDefaults() Lexicon {
	def := DefaultLexicon()
	if len(l.Positive) == 0 {
		l.Positive = def.Positive
	}
	if len(l.Negative) == 0 {
		l.Negative = def.Negative
	}
	if len(l.Intents) == 0 {
		l.Intents = def.Intents
	}
	if len(l.Tones) == 0 {
		l.Tones = def.Tones
	}
	if len(l.Colors) == 0 {
		l.Colors = def.Colors
	}
	if len(l.Clothing) == 0 {
		l.Clothing = def.Clothing
	}
	if len(l.Polite) == 0 {
		l.Polite = def.Polite
	}
	if len(l.Informal) == 0 {
		l.Informal = def.Informal
	}
	if len(l.Commanding) == 0 {
		l.Commanding = def.Commanding
	}
	if len(l.Urgent) == 0 {
		l.Urgent = def.Urgent
	}
	if len(l.NameStopwords) == 0 {
		l.NameStopwords = def.NameStopwords
	}
	return l
}

// DefaultLexicon returns the built-in Spanish/English lexicon.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"bien", "genial", "feliz", "excelente", "perfecto", "bueno", "buena", "maravilloso",
			"encanta", "alegre", "contento", "contenta", "increible", "fantastico", "gracias",
			"good", "great", "happy", "awesome", "excellent", "perfect", "nice", "wonderful",
			"amazing", "glad", "thanks", "love",
		},
		Negative: []string{
			"mal", "triste", "enfadado", "enfadada", "enojado", "enojada", "odio", "horrible",
			"terrible", "problema", "fatal", "preocupado", "preocupada", "cansado", "cansada",
			"molesto", "molesta", "harto", "harta", "no puedo",
			"bad", "sad", "angry", "hate", "awful", "problem", "worried", "upset", "tired",
		},
		Intents: []IntentRule{
			{Intent: types.IntentPhoneAction, Keywords: []string{
				"llama", "llamame", "llamar", "llamale", "haz una llamada", "marca a",
				"call", "dial", "phone him", "phone her",
			}},
			{Intent: types.IntentMessageAction, Keywords: []string{
				"manda un mensaje", "envia un mensaje", "mandale", "enviale", "escribele",
				"whatsapp", "sms", "send a message", "send message", "text him", "text her",
			}},
			{Intent: types.IntentOutfitChange, Keywords: []string{
				"cambia de ropa", "cambiate", "ponte", "vistete", "ropa", "outfit",
				"wear", "put on", "change clothes", "dress up",
			}},
			{Intent: types.IntentRequest, Keywords: []string{
				"necesito", "ayuda", "ayudame", "por favor", "puedes", "podrias", "quiero que", "hazme",
				"need", "help", "please", "can you", "could you", "would you",
			}},
			{Intent: types.IntentQuestion, Keywords: []string{
				"?", "¿", "por que", "what", "how", "why", "when", "where", "who",
			}},
			{Intent: types.IntentAppreciation, Keywords: []string{
				"gracias", "agradezco", "te lo agradezco", "thanks", "thank you", "thx", "appreciate",
			}},
			{Intent: types.IntentGreeting, Keywords: []string{
				"hola", "buenas", "buenos dias", "buenas tardes", "que tal", "saludos",
				"hey", "hi", "hello", "good morning", "good afternoon",
			}},
			{Intent: types.IntentFarewell, Keywords: []string{
				"adios", "chao", "chau", "hasta luego", "nos vemos", "hasta manana",
				"bye", "goodbye", "see you", "good night",
			}},
		},
		Tones: []ToneRule{
			{Tone: types.ToneLoving, Keywords: []WeightedKeyword{
				// Declarations outweigh a compliment plus an emoji.
				{"te quiero", 1.5}, {"te amo", 1.5}, {"mi vida", 0.8}, {"amor", 0.6}, {"carino", 0.6},
				{"corazon", 0.5}, {"love you", 1.5}, {"❤", 0.6}, {"💕", 0.6}, {"🥰", 0.6},
			}},
			{Tone: types.ToneFlirty, Keywords: []WeightedKeyword{
				{"sexy", 0.8}, {"guapa", 0.6}, {"guapo", 0.6}, {"beso", 0.6}, {"besos", 0.6},
				{"hermosa", 0.5}, {"preciosa", 0.5}, {"cute", 0.5}, {"kiss", 0.6},
				{"😘", 0.6}, {"😏", 0.7}, {"😉", 0.5},
			}},
			{Tone: types.ToneNeedy, Keywords: []WeightedKeyword{
				{"te extrano", 1.0}, {"te echo de menos", 1.0}, {"te necesito", 1.0},
				{"me siento sola", 0.8}, {"me siento solo", 0.8}, {"abrazame", 0.8},
				{"miss you", 1.0}, {"need you", 0.9}, {"lonely", 0.8},
			}},
			{Tone: types.ToneExcited, Keywords: []WeightedKeyword{
				{"que emocion", 0.8}, {"emocionado", 0.8}, {"emocionada", 0.8}, {"increible", 0.6},
				{"genial", 0.5}, {"wow", 0.6}, {"yay", 0.6}, {"awesome", 0.5}, {"amazing", 0.5},
				{"!!", 0.5}, {"🎉", 0.6}, {"😄", 0.4},
			}},
			{Tone: types.ToneThoughtful, Keywords: []WeightedKeyword{
				{"me pregunto", 0.7}, {"reflexionar", 0.6}, {"pienso", 0.5}, {"creo", 0.4},
				{"quizas", 0.4}, {"tal vez", 0.4}, {"wonder", 0.6}, {"think", 0.4},
				{"maybe", 0.4}, {"perhaps", 0.4}, {"🤔", 0.6},
			}},
		},
		Colors: []string{
			"rojo", "roja", "azul", "verde", "negro", "negra", "blanco", "blanca", "amarillo",
			"amarilla", "rosa", "morado", "morada", "naranja", "gris", "marron", "dorado", "plateado",
			"red", "blue", "green", "black", "white", "yellow", "pink", "purple", "orange",
			"gray", "grey", "brown", "gold", "silver",
		},
		Clothing: []string{
			"vestido", "camisa", "camiseta", "falda", "pantalon", "pantalones", "chaqueta", "abrigo",
			"zapatos", "botas", "sombrero", "gorra", "jersey", "sudadera", "bikini", "pijama", "traje",
			"dress", "shirt", "tshirt", "skirt", "pants", "jeans", "jacket", "coat", "shoes", "boots",
			"hat", "cap", "sweater", "hoodie", "suit", "pajamas",
		},
		Polite: []string{
			"por favor", "gracias", "si no es molestia", "le importaria", "podrias", "seria posible",
			"please", "thanks", "thank you", "would you", "could you", "kindly",
		},
		Informal: []string{
			"jaja", "jajaja", "xd", "lol", "tio", "tia", "bro", "wey", "porfa", "xq", "tb", "haha", "k",
		},
		Commanding: []string{
			"hazlo", "ahora mismo", "inmediatamente", "ya mismo", "dame", "quiero que", "obedece",
			"do it", "right now", "immediately", "now",
		},
		Urgent: []string{
			"urgente", "urgencia", "importante", "emergencia", "cuanto antes",
			"urgent", "important", "emergency", "asap",
		},
		NameStopwords: []string{
			"yo", "tu", "el", "ella", "nosotros", "ustedes", "la", "lo", "los", "las", "un", "una",
			"si", "no", "pero", "y", "o", "que", "me", "te", "se", "mi", "es", "esta", "estoy",
			"i", "you", "he", "she", "we", "they", "the", "a", "an", "and", "or", "but", "my",
			"it", "is", "ok", "okay", "oye", "mira", "vale", "bueno",
		},
	}
}
