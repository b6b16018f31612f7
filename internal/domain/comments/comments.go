// Package comments builds the comment-generation prompt and turns the model
// output into exactly Count comments.
package comments

import (
	"errors"
	"fmt"
	"strings"
)

// Count is the number of comments returned for every video.
const Count = 10

// ErrNoAnalysis is returned when a prompt is requested without an analysis.
var ErrNoAnalysis = errors.New("video analysis is required")

var generic = [Count]string{
	"This is amazing! 🔥",
	"Love this content! ❤️",
	"So good! 😍",
	"Obsessed with this! 💯",
	"Can't stop watching! 🤩",
	"This made my day! 😊",
	"Incredible! 👏",
	"Need more of this! 🙌",
	"Perfect! ✨",
	"You're the best! 💖",
}

const promptTemplate = `
Based on the following TikTok video analysis, generate 10 authentic and engaging comments that viewers might leave on this video.

Video Analysis:
%s

Video Description: %s
Author: @%s

Requirements for the comments:
1. Make them sound natural and authentic, like real TikTok users would write
2. Vary the tone and style - some funny, some supportive, some asking questions
3. Include appropriate emojis that TikTok users commonly use
4. Keep them concise (most TikTok comments are short)
5. Some should reference specific moments or aspects mentioned in the analysis
6. Avoid being too formal or robotic
7. Include a mix of:
   - Compliments or positive reactions
   - Relatable responses
   - Questions or requests
   - Funny observations
   - Supportive messages
8. Use TikTok-style language and abbreviations where appropriate (but not excessively)

Generate exactly 10 comments, each on a new line. Do not number them or add any other formatting.
`

// Prompt renders the generation prompt.
func Prompt(analysis, description, author string) (string, error) {
	if strings.TrimSpace(analysis) == "" {
		return "", ErrNoAnalysis
	}
	if description == "" {
		description = "No description provided"
	}
	return fmt.Sprintf(promptTemplate, analysis, description, author), nil
}

// Parse keeps the first Count non-blank lines of text and pads the rest
// with generic comments.
func Parse(text string) []string {
	out := make([]string, 0, Count)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == Count {
			return out
		}
	}
	for len(out) < Count {
		out = append(out, generic[len(out)%Count])
	}
	return out
}
