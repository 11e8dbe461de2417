package grounding

import "strings"

// SystemInstructions opens every prompt.
const SystemInstructions = `நீங்கள் ஒரு தமிழ் தகவல் மேலாண்மை உதவியாளர். உங்கள் பணி பயனருக்கு துல்லியமான, நம்பகமான மற்றும் சீரான தகவல்களை வழங்குவதாகும்.

முக்கிய விதிமுறைகள்:
1. எல்லா பதில்களையும் தமிழில் மட்டுமே வழங்கவும்.
2. பயனர் வாழ்த்து தெரிவித்தால், நீங்களும் வாழ்த்து தெரிவிக்கவும். தகவல் கேட்டால், தகவல் வழங்கவும்.
3. விக்கிப்பீடியா தகவலுக்கு முன்னுரிமை கொடுக்கவும். அது இல்லாவிட்டால் அல்லது குறைவாக இருந்தால், இணையத் தேடல் தகவலைப் பயன்படுத்தவும்.
4. கீழே கொடுக்கப்பட்ட தகவலை மட்டும் பயன்படுத்தவும். தவறான அல்லது கற்பனையான தகவலை வழங்க வேண்டாம்.
5. தமிழ் இலக்கியம், வரலாறு, பண்பாடு, சங்க இலக்கியம் மற்றும் பழந்தமிழ் இலக்கியம் தொடர்பான கேள்விகளுக்கு விரிவான விளக்கம் வழங்கவும்.
6. தெளிவான தலைப்பு, விளக்கம் மற்றும் தகவல் ஆதாரத்தை (உதாரணமாக: "விக்கிப்பீடியா" அல்லது "இணையத் தேடல்") குறிப்பிடவும்.
7. பதில் தெரியாவிட்டால், "இந்தக் கேள்விக்கு எனக்கு துல்லியமான பதில் தெரியவில்லை" என பதில் தரவும்.`

// Section headers and the closing instruction.
const (
	QuestionHeader     = "கேள்வி: "
	KnowledgeHeader    = "விக்கிப்பீடியா தகவல்:\n"
	SearchHeader       = "இணையத் தேடல் தகவல்:\n"
	ClosingInstruction = "மேற்கண்ட தகவல்களை (இருப்பின்) பயன்படுத்தி, துல்லியமான, நம்பகமான மற்றும் தெளிவான தமிழ் பதிலை உருவாக்கவும்."
)

// BuildPrompt renders the prompt in fixed order. Absent sections are left
// out entirely, headers included.
func BuildPrompt(query string, gc Context) string {
	var b strings.Builder
	b.WriteString(SystemInstructions)
	b.WriteString("\n\n")
	b.WriteString(QuestionHeader)
	b.WriteString(query)
	b.WriteString("\n\n")
	if gc.Knowledge != nil && gc.Knowledge.Content != "" {
		b.WriteString(KnowledgeHeader)
		b.WriteString(gc.Knowledge.Content)
		b.WriteString("\n\n")
	}
	if gc.Search != "" {
		b.WriteString(SearchHeader)
		b.WriteString(gc.Search)
		b.WriteString("\n\n")
	}
	b.WriteString(ClosingInstruction)
	return b.String()
}
