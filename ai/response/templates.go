package response

import (
	"fmt"

	"github.com/hrygo/contextsense/ai/configloader"
	"github.com/hrygo/contextsense/ai/types"
)

// Rule is one template keyed by (Intent, Tone, Relationship). Empty key fields
// are wildcards.
type Rule struct {
	Intent       types.Intent           `yaml:"intent"`
	Tone         types.EmotionalTone    `yaml:"tone"`
	Relationship types.RelationshipType `yaml:"relationship"`
	Texts        []string               `yaml:"texts"`
}

// CallScript holds the lines spoken on an answered call.
type CallScript struct {
	Opening   []string `yaml:"opening"`
	FollowUps []string `yaml:"follow_ups"`
}

// Templates is the full reply vocabulary.
type Templates struct {
	Rules     []Rule                        `yaml:"rules"`
	Fallback  []string                      `yaml:"fallback"`
	Calls     map[types.CallTone]CallScript `yaml:"calls"`
	Decline   []string                      `yaml:"decline"`
	Voicemail []string                      `yaml:"voicemail"`
}

// LoadTemplates reads YAML templates through the loader. Sections missing
// from the file keep their defaults.
func LoadTemplates(loader *configloader.Loader, path string) (Templates, error) {
	var t Templates
	if err := loader.Load(path, &t); err != nil {
		return Templates{}, fmt.Errorf("load templates: %w", err)
	}
	return t.withDefaults(), nil
}

func (t Templates) withDefaults() Templates {
	def := DefaultTemplates()
	if len(t.Rules) == 0 {
		t.Rules = def.Rules
	}
	if len(t.Fallback) == 0 {
		t.Fallback = def.Fallback
	}
	if len(t.Calls) == 0 {
		t.Calls = def.Calls
	} else {
		for tone, script := range def.Calls {
			if _, ok := t.Calls[tone]; !ok {
				t.Calls[tone] = script
			}
		}
	}
	if len(t.Decline) == 0 {
		t.Decline = def.Decline
	}
	if len(t.Voicemail) == 0 {
		t.Voicemail = def.Voicemail
	}
	return t
}

// DefaultTemplates returns the built-in Spanish templates.
func DefaultTemplates() Templates {
	const (
		partner = types.RelationshipPartner
		family  = types.RelationshipFamily
		work    = types.RelationshipWork
	)
	return Templates{
		Rules: []Rule{
			{types.IntentGreeting, types.ToneLoving, partner, []string{
				"¡Hola mi amor! Qué alegría saber de ti ❤️",
				"Hola cariño, justo estaba pensando en ti",
			}},
			{types.IntentGreeting, "", partner, []string{"¡Hola {name}! ¿Cómo estás, cielo?"}},
			{types.IntentGreeting, "", work, []string{"Buenos días {name}, ¿en qué puedo ayudarle?"}},
			{types.IntentGreeting, "", "", []string{"¡Hola {name}! ¿Qué tal?", "¡Hey {name}! ¿Cómo va todo?"}},

			{types.IntentFarewell, "", partner, []string{"Hasta luego mi amor, te quiero ❤️"}},
			{types.IntentFarewell, "", "", []string{"¡Hasta luego {name}!", "¡Nos vemos pronto!"}},

			{types.IntentAppreciation, "", work, []string{"Un placer, quedo a su disposición"}},
			{types.IntentAppreciation, "", "", []string{"¡De nada {name}! Para eso estoy", "Un placer ayudarte"}},

			{types.IntentQuestion, types.ToneThoughtful, "", []string{"Buena pregunta... déjame pensarlo un momento"}},
			{types.IntentQuestion, "", work, []string{"Lo consulto y le respondo en breve"}},
			{types.IntentQuestion, "", "", []string{"Déjame comprobarlo y te digo", "Buena pregunta, ahora te cuento"}},

			{types.IntentRequest, types.ToneNeedy, partner, []string{"Aquí estoy mi amor, dime qué necesitas"}},
			{types.IntentRequest, "", work, []string{"Entendido, me pongo con ello enseguida"}},
			{types.IntentRequest, "", family, []string{"Claro que sí, {name}. Ahora mismo te ayudo"}},
			{types.IntentRequest, "", "", []string{"Claro, {name}. Cuéntame qué necesitas", "Por supuesto, ¿en qué te ayudo?"}},

			{types.IntentPhoneAction, "", "", []string{"Vale, ahora mismo llamo a {target}"}},
			{types.IntentMessageAction, "", "", []string{"Perfecto, le escribo a {target} ahora"}},

			{types.IntentOutfitChange, types.ToneFlirty, "", []string{"¿Te gusta? Me pongo el {clothing} {color} solo para ti 😉"}},
			{types.IntentOutfitChange, "", "", []string{"¡Hecho! Me cambio al {clothing} {color}"}},

			{types.IntentConversation, "", partner, []string{"Cuéntame más, cariño"}},

			{"", types.ToneLoving, "", []string{"Yo también te quiero ❤️"}},
			{"", types.ToneFlirty, "", []string{"Vaya, vaya... 😏"}},
			{"", types.ToneNeedy, "", []string{"Aquí estoy, no te preocupes"}},
			{"", types.ToneExcited, "", []string{"¡Qué bien! Me alegro mucho"}},
			{"", types.ToneThoughtful, "", []string{"Interesante, dame un momento para pensarlo"}},
		},
		Fallback: []string{"Entendido, te leo", "Vale, lo tengo en cuenta"},
		Calls: map[types.CallTone]CallScript{
			types.CallToneIntimate: {
				Opening:   []string{"¡Hola mi amor! Qué bien que me llames"},
				FollowUps: []string{"¿Qué tal tu día, cielo?", "Te echaba de menos", "Cuéntame, te escucho"},
			},
			types.CallToneWarm: {
				Opening:   []string{"¡Hola {name}! ¿Qué tal?"},
				FollowUps: []string{"¿Cómo va todo por ahí?", "Cuéntame, te escucho"},
			},
			types.CallToneProfessional: {
				Opening:   []string{"Buenos días {name}, dígame"},
				FollowUps: []string{"Tomo nota", "¿Algo más en lo que pueda ayudarle?"},
			},
			types.CallToneFormal: {
				Opening:   []string{"Buenos días, ¿con quién hablo?"},
				FollowUps: []string{"¿En qué puedo ayudarle?", "Le escucho"},
			},
		},
		Decline:   []string{"Lo siento, ahora mismo no puedo atender la llamada"},
		Voicemail: []string{"No puedo atenderte ahora, deja tu mensaje y te llamo luego"},
	}
}
