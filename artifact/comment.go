package artifact

import (
	"fmt"
	"strings"

	"github.com/santiagomed/edpgen/catalog"
)

// CommentLine renders text as a single-line comment in lang.
func CommentLine(lang catalog.Language, text string) string {
	text = strings.Join(strings.Fields(text), " ")
	switch lang {
	case catalog.HTMLLang, catalog.XML:
		return fmt.Sprintf("<!-- %s -->", strings.ReplaceAll(text, "--", "- -"))
	case catalog.CSS:
		return fmt.Sprintf("/* %s */", strings.ReplaceAll(text, "*/", "* /"))
	default:
		return "// " + text
	}
}

// PrependInstruction returns a transform that prepends the regeneration
// instruction as a comment line in the file's language.
func PrependInstruction(instruction string) func(GeneratedFile) string {
	return func(f GeneratedFile) string {
		return CommentLine(f.Language, "Regenerated: "+instruction) + "\n" + f.Content
	}
}

// Replace returns a transform that replaces the content with content.
func Replace(content string) func(GeneratedFile) string {
	return func(GeneratedFile) string {
		return content
	}
}
