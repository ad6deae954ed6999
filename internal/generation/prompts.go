package generation

import (
	"fmt"
	"strings"

	"github.com/aura-lectures/backend/internal/models"
)

const (
	defaultTone          = "friendly tutor"
	defaultDifficulty    = "intermediate"
	defaultScriptMinutes = 5
)

func withDefaults(p models.GenerationPreferences) models.GenerationPreferences {
	if strings.TrimSpace(p.Tone) == "" {
		p.Tone = defaultTone
	}
	if strings.TrimSpace(p.Difficulty) == "" {
		p.Difficulty = defaultDifficulty
	}
	if p.TargetLengthMinutes <= 0 {
		p.TargetLengthMinutes = defaultScriptMinutes
	}
	return p
}

func focusLine(prefix string, topics []string) string {
	if len(topics) == 0 {
		return ""
	}
	return prefix + strings.Join(topics, ", ")
}

func shortNotesPrompt(transcript string, p models.GenerationPreferences) string {
	return fmt.Sprintf(`You are an expert note-taker. Summarize the following lecture transcript into concise, bullet-point notes.
Format: Use markdown with clear bullet points. Keep it brief and highlight only the most important points.
%s

Transcript:
%s

Generate concise bullet-point notes:`, focusLine("Focus on these topics: ", p.FocusTopics), transcript)
}

func detailedNotesPrompt(transcript string, p models.GenerationPreferences) string {
	return fmt.Sprintf(`You are an expert educator creating detailed study notes from a lecture transcript.
Tone: %s
Difficulty level: %s
%s

Create comprehensive notes that:
1. Break the content into logical sections with headers
2. Include timestamps for reference (format: [MM:SS])
3. Explain concepts clearly at the %s level
4. Use markdown formatting with headers, bullet points, and emphasis
5. Add summaries for each section

Transcript:
%s

Generate detailed lecture notes:`, p.Tone, p.Difficulty, focusLine("Focus on these topics: ", p.FocusTopics), p.Difficulty, transcript)
}

func flashcardsPrompt(transcript string) string {
	return fmt.Sprintf(`Create 8-10 flashcards from this lecture transcript.
Each flashcard should have:
- A clear question or term on the front
- A concise answer or definition on the back
- A timestamp reference from the transcript

Format your response as valid JSON with this structure:
{
  "flashcards": [
    {
      "id": 1,
      "front": "Question or term",
      "back": "Answer or definition",
      "timestamp": "[MM:SS-MM:SS]"
    }
  ],
  "total": 10
}

Transcript:
%s

Generate flashcards in JSON format (respond with ONLY the JSON, no markdown formatting):`, transcript)
}

func quizPrompt(transcript string) string {
	return fmt.Sprintf(`Create a 5-question multiple-choice quiz from this lecture transcript.
Each question should:
- Test understanding of key concepts
- Have 4 options (A, B, C, D)
- Include the correct answer index (0-3)
- Provide an explanation with timestamp reference

Format your response as valid JSON with this structure:
{
  "questions": [
    {
      "id": 1,
      "type": "multiple_choice",
      "question": "Question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct": 0,
      "explanation": "Explanation with [MM:SS] reference"
    }
  ],
  "total": 5
}

Transcript:
%s

Generate quiz in JSON format (respond with ONLY the JSON, no markdown formatting):`, transcript)
}

func scriptPrompt(transcript string, p models.GenerationPreferences) string {
	return fmt.Sprintf(`Create a %d-minute podcast script that summarizes this lecture.
Tone: %s
%s

The script should:
1. Start with an engaging intro
2. Cover the main points in a conversational way
3. Use natural spoken language
4. End with a memorable conclusion
5. Include [INTRO MUSIC], [MAIN CONTENT], [OUTRO MUSIC] markers

Transcript:
%s

Generate podcast script:`, p.TargetLengthMinutes, p.Tone, focusLine("Focus on: ", p.FocusTopics), transcript)
}
