// Package prompt holds the instructional templates sent to the language model.
package prompt

import (
	"fmt"
	"strings"
)

const analysisTemplate = `Here is the text content from the uploaded exam paper (%s):
%s

---------------------------------------------
INSTRUCTIONS:
Analyze this exam paper in detail. Your goal is to extract crystal-clear insights.

Deliver the analysis in this structure:
1. Repeated Questions Analysis (Frequency & Topics)
2. Important Topics Priority List (High Weightage)
3. Chapter-wise Weightage (%%)
4. Difficulty Assessment (Easy/Moderate/Hard)
5. Final Summary: Top 5 Expected Questions

Be highly accurate and structured.`

// Analysis builds the full-document analysis prompt for an uploaded paper.
func Analysis(fileName, text string) string {
	return fmt.Sprintf(analysisTemplate, fileName, text)
}

const tutorTemplate = `You are a patient tutor helping a student study from their own exam paper.
Answer the question using the excerpts below whenever possible. When your
answer comes from an excerpt, cite it with its marker, e.g. [Section 2].
If the excerpts do not contain enough information, you may answer from
general knowledge, but say explicitly that the answer is not from the paper.

EXCERPTS:
%s

QUESTION:
%s

Answer:`

// Tutor builds the grounded question-answering prompt from the retrieved
// section texts (in retrieval order) and the student's verbatim question.
func Tutor(sections []string, question string) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Section %d]\n%s", i+1, s)
	}
	return fmt.Sprintf(tutorTemplate, sb.String(), question)
}
