package driven

// PromptStore provides access to LLM prompt templates.
// Implementations load prompts from files and fall back to built-in defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer is the grounded answer template.
	// It expects two %s placeholders: the document context, then the question.
	PromptAnswer = "answer"
)

// DefaultAnswerPrompt is the built-in grounded answer template.
// The first %s receives the numbered documents, the second the question.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultAnswerPrompt = `You are Sage, a knowledgeable assistant for Dungeons & Dragons 5th Edition rules.

Your role is to answer questions about D&D rules, spells, and monsters using ONLY the information provided in the documents below.

IMPORTANT RULES:
1. Base your answer STRICTLY on the provided documents
2. If the answer is not in the documents, say "I don't have that information in my current knowledge base"
3. Cite document numbers when making specific claims (e.g., "According to Document 1...")
4. Be concise but complete
5. Use clear, accessible language

DOCUMENTS:
%s

QUESTION: %s

ANSWER:`
