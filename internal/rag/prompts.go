package rag

import (
	"fmt"
	"strings"

	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

const answerSystemPrompt = `You are Study Buddy, a helpful AI tutor. Answer the student's question using ONLY the provided study material excerpts. If the excerpts do not contain the answer, say so honestly instead of guessing. Be clear, accurate, and educational.`

const practiceSystemPrompt = `You are Study Buddy, a helpful AI tutor. Create practice questions from the provided study material excerpts. Each question should test understanding of the material, and each should be followed by its answer. Number the questions.`

// NoInformationAnswer is returned when retrieval finds nothing relevant,
// without invoking the language model.
const NoInformationAnswer = "I couldn't find any relevant information in your uploaded documents to answer this question. Try uploading more study materials or rephrasing your question."

// buildAnswerPrompt assembles the grounded user prompt: numbered context
// excerpts followed by the question.
func buildAnswerPrompt(question string, results []vectordb.SearchResult) string {
	var b strings.Builder
	b.WriteString("Here are excerpts from the student's study materials:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[Excerpt %d, from %s]\n%s\n\n", i+1, r.DocumentName, r.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer the question using the excerpts above.")
	return b.String()
}

func buildPracticePrompt(topic string, numQuestions int, results []vectordb.SearchResult) string {
	var b strings.Builder
	b.WriteString("Here are excerpts from the student's study materials:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[Excerpt %d, from %s]\n%s\n\n", i+1, r.DocumentName, r.Text)
	}
	fmt.Fprintf(&b, "Generate %d practice questions about %q based on the excerpts above. Include the answer after each question.", numQuestions, topic)
	return b.String()
}
