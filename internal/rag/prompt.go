package rag

import (
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/knowassist/knowassist/internal/conversation"
	"github.com/knowassist/knowassist/internal/index"
)

const systemPrompt = `You are a knowledgeable assistant that answers questions based on the provided document context.

Use the context below to answer the user's question. If the context does not contain enough information to answer, say so clearly instead of guessing. Cite specific details from the context where possible.

Context:
%s`

const emptyContextNote = "(no relevant documents found)"

// buildSystem renders the system prompt with the retrieved chunks. Each
// chunk is labeled with its source so the model can refer to documents by
// name.
func buildSystem(results []index.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf(systemPrompt, emptyContextNote)
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source %d: %s", i+1, r.DocumentName)
		if r.Page > 0 {
			fmt.Fprintf(&b, ", page %d", r.Page)
		}
		b.WriteString("]\n")
		b.WriteString(r.Content)
	}
	return fmt.Sprintf(systemPrompt, b.String())
}

// buildMessages converts stored history plus the new question into the
// model message list. Roles map user to user and assistant to model.
func buildMessages(history []conversation.Message, question string) []*ai.Message {
	messages := make([]*ai.Message, 0, len(history)+1)
	for _, m := range history {
		switch m.Role {
		case conversation.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		}
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(question)))
	return messages
}
