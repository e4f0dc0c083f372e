package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// Description template
// ============================================================================

// FirstParagraphFormat is the sentence skeleton of the first description
// paragraph. Arguments: caption, lower-cased caption, environment,
// background, mood.
const FirstParagraphFormat = "Based on the image caption: %s, we can deduce that the image depicts a scene " +
	"containing several key elements. The main subject of the image is %s, and the scene is set in a %s " +
	"environment. You can see details such as %s in the background, creating an overall sense of %s."

// Filler word sets for the template. Each slot is drawn independently.
var (
	EnvironmentOptions = []string{"urban", "natural", "indoor", "outdoor"}
	BackgroundOptions  = []string{"people", "buildings", "nature", "objects"}
	MoodOptions        = []string{"calm", "busy", "serene", "dynamic"}
)

// ============================================================================
// Chat-completion prompts (OpenAI-compatible providers)
// ============================================================================

// CaptionSystemPrompt keeps chat models close to BLIP-style captions.
const CaptionSystemPrompt = `You write image captions. Reply with one short, lower-case caption of
at most fifteen words describing the main subject and what it is doing. No
punctuation at the end, no quotes, no preamble.`

// CaptionUserPrompt accompanies the image.
const CaptionUserPrompt = `Caption this image.`

// CategorySystemPrompt asks for a single label from a closed set.
const CategorySystemPrompt = `You classify images. Answer with exactly one label from the list you are
given, copied verbatim, and nothing else.`

// CategoryUserPrompt renders the user turn for the given label set.
func CategoryUserPrompt(labels []string) string {
	return fmt.Sprintf("Labels: %s\nWhich label fits this image best?", strings.Join(labels, ", "))
}
