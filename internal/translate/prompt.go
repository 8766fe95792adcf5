package translate

import "fmt"

// TextSystemPrompt returns the system prompt for plain text
func TextSystemPrompt(source, target string) string {
	if source == "" || source == SourceAuto {
		return fmt.Sprintf("You are a professional translation assistant. "+
			"Detect the language of the text provided by the user and translate it into %s. "+
			"Return only the translation.", target)
	}
	return fmt.Sprintf("You are a professional translation assistant. "+
		"Translate the text provided by the user from %s into %s. "+
		"Return only the translation.", source, target)
}

// MarkdownSystemPrompt returns the system prompt for Markdown documents.
// The model is told to keep the formatting untouched so translated
// files still render and build.
func MarkdownSystemPrompt(source, target string) string {
	if source == "" || source == SourceAuto {
		return fmt.Sprintf("You are a professional technical documentation translator. "+
			"Detect the language of the Markdown text provided by the user and translate it into %s. "+
			"Keep the Markdown formatting exactly as it is, including headings, lists, tables, "+
			"links, and code blocks. Return only the translated Markdown.", target)
	}
	return fmt.Sprintf("You are a professional technical documentation translator. "+
		"Translate the Markdown text provided by the user from %s into %s. "+
		"Keep the Markdown formatting exactly as it is, including headings, lists, tables, "+
		"links, and code blocks. Return only the translated Markdown.", source, target)
}

// CodeSystemPrompt returns the system prompt for source code files.
// Only comments and user-facing string literals are translated.
func CodeSystemPrompt(source, target string) string {
	if source == "" || source == SourceAuto {
		return fmt.Sprintf("You are a professional software localization assistant. "+
			"Translate the comments and user-facing string literals in the source code "+
			"provided by the user into %s, detecting their language automatically. "+
			"Leave identifiers, keywords, and code structure unchanged. Return only the code.", target)
	}
	return fmt.Sprintf("You are a professional software localization assistant. "+
		"Translate the comments and user-facing string literals in the source code "+
		"provided by the user from %s into %s. "+
		"Leave identifiers, keywords, and code structure unchanged. Return only the code.", source, target)
}
