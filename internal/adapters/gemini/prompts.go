package gemini

import "fmt"

// VideoPrompt asks for the seven-section breakdown the insight heuristics parse.
const VideoPrompt = `
You are analyzing a TikTok video. Please provide a detailed analysis with the following structure:

1. VISUAL CONTENT:
  - Describe what is happening visually in the video
  - Identify people, objects, settings, and actions
  - Note any text overlays or captions visible in the video

2. AUDIO CONTENT:
  - Transcribe any speech or dialogue
  - Describe background music or sound effects
  - Note any voiceovers or narration

3. KEY MOMENTS:
  - List important moments with approximate timestamps
  - Highlight any surprising or engaging elements

4. THEMES & TOPICS:
  - Identify the main topic or purpose of the video
  - List any hashtags or trends being referenced
  - Note any cultural context important for understanding

5. ENGAGEMENT FACTORS:
  - What might make this video appealing to viewers?
  - What emotional responses might it trigger?
  - Why might viewers share, like, or comment on this content?

6. AUDIENCE & CONTEXT:
  - Who seems to be the target audience?
  - What social or cultural context is relevant?
  - How does this video fit within broader TikTok trends?

7. SEMANTIC ANALYSIS:
  - Analyze the language use and communication style
  - Identify key messaging or persuasive elements
  - Note any storytelling techniques being used
`

// CommentsPrompt asks for an understanding of the video geared at writing comments.
const CommentsPrompt = `
Analyze this TikTok video and provide a comprehensive understanding that will help generate relevant comments.

Focus on:
1. Main content and theme
2. Emotional tone and mood
3. Key moments or highlights
4. Target audience
5. Cultural context or trends
6. What makes this video engaging
7. Common reactions viewers might have

Be concise but thorough. This analysis will be used to generate authentic-sounding comments.
`

// withContext appends the caption to prompt when there is one.
func withContext(prompt, description string) string {
	if description == "" {
		return prompt
	}
	return fmt.Sprintf(`%s
ADDITIONAL CONTEXT:
The video has the following description: "%s"
Please consider this description when analyzing the video content.
`, prompt, description)
}
