package grounding

import "tamilbot/internal/wiki"

// Labels shown under an assistant reply.
const (
	LabelBoth   = "விக்கிப்பீடியா மற்றும் இணையத் தேடல்"
	LabelSearch = "இணையத் தேடல்"
	LabelNone   = "தகவல் ஆதாரம் கிடைக்கவில்லை"
)

var languageNames = map[wiki.Language]string{
	wiki.Primary:   "தமிழ்",
	wiki.Secondary: "ஆங்கிலம்",
}

// SourceLabel names the sources that fed a reply. It depends only on its
// arguments; language matters only when knowledge is the sole source.
func SourceLabel(knowledgePresent bool, language wiki.Language, searchPresent bool) string {
	switch {
	case knowledgePresent && searchPresent:
		return LabelBoth
	case knowledgePresent:
		return "விக்கிப்பீடியா (" + languageNames[language] + ")"
	case searchPresent:
		return LabelSearch
	default:
		return LabelNone
	}
}

// Label is SourceLabel applied to a built context.
func (c Context) Label() string {
	lang := wiki.Primary
	if c.Knowledge != nil {
		lang = c.Knowledge.Language
	}
	return SourceLabel(c.Knowledge != nil, lang, c.Search != "")
}
