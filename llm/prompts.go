package llm

import (
	"fmt"
	"strings"

	"github.com/santiagomed/edpgen/catalog"
)

// PromptSeparator sits between the specification text and the generation rules.
const PromptSeparator = "\n\n---\n\n"

const summarizeInstruction = `Reformat the document above into a concise software specification with these sections:
1. Use Case: actors, goals and the main flow
2. Design Requirements: screens, validations and integration points
3. Data Design: entities, fields, types and relationships
Keep every business rule. Do not invent requirements that are not in the document.`

func getSystemPrompt() string {
	return `You are an expert software engineer. You turn specifications into complete, compilable source files.

Follow the rules given with each request exactly. Return only the requested source code.

Do NOT use markdown code blocks at the beginning or end of your responses.`
}

type templateKey struct {
	target    catalog.CodeTarget
	component catalog.ComponentType
}

var templates = map[templateKey]string{
	{catalog.Frontend, catalog.HTML}: `Generate an Angular component HTML template for the specification above.
Rules:
1. Use semantic HTML5 elements and Bootstrap 5 classes for layout
2. Bind every field in the data design with Angular template syntax
3. Show validation messages next to each input
4. Include loading and empty states
5. Return only the HTML template`,

	{catalog.Frontend, catalog.Form}: `Generate an Angular reactive form component in TypeScript for the specification above.
Rules:
1. Build the FormGroup with FormBuilder and one control per input field
2. Apply Validators for every required, length and format rule
3. Expose a submit handler that calls the service layer
4. Disable submission while the form is invalid or pending
5. Return only the TypeScript component class`,

	{catalog.Frontend, catalog.Service}: `Generate an Angular service in TypeScript for the specification above.
Rules:
1. Mark the class @Injectable({ providedIn: 'root' })
2. Use HttpClient for every API call in the design
3. Define request and response interfaces for each entity
4. Map HTTP errors to a typed error with catchError
5. Return Observables, never subscribe inside the service`,

	{catalog.Frontend, catalog.Routing}: `Generate an Angular routing module in TypeScript for the specification above.
Rules:
1. Declare one route per screen in the design requirements
2. Lazy load feature modules with loadChildren
3. Add a route guard for screens that require authentication
4. Redirect the empty path to the main screen and add a wildcard not-found route
5. Return only the routing module`,

	{catalog.Frontend, catalog.All}: `Generate the complete Angular frontend in TypeScript for the specification above.
Rules:
1. Include the HTML template, reactive form component, service and routing module
2. Separate each file with a comment line naming the file path
3. Keep models in shared interfaces used by every file
4. Apply the validation rules from the specification in the form
5. Return only source code`,

	{catalog.Backend, catalog.Entity}: `Generate a JPA entity class in Java for the specification above.
Rules:
1. Annotate the class with @Entity and @Table
2. Map every field in the data design with the matching column type
3. Use @Id with a generated identity strategy
4. Model relationships with @OneToMany, @ManyToOne or @ManyToMany as described
5. Add Bean Validation annotations for required and length rules
6. Return only the Java class`,

	{catalog.Backend, catalog.Controller}: `Generate a Spring Boot REST controller in Java for the specification above.
Rules:
1. Annotate with @RestController and a versioned @RequestMapping
2. Expose one endpoint per operation in the use case
3. Validate request bodies with @Valid
4. Return ResponseEntity with correct HTTP status codes
5. Delegate all logic to the service layer
6. Return only the Java class`,

	{catalog.Backend, catalog.Service}: `Generate a Spring Boot service in Java for the specification above.
Rules:
1. Annotate with @Service and inject dependencies through the constructor
2. Implement every business rule from the use case
3. Wrap write operations in @Transactional
4. Throw domain-specific exceptions for rule violations
5. Return only the Java class`,

	{catalog.Backend, catalog.Repository}: `Generate a Spring Data JPA repository interface in Java for the specification above.
Rules:
1. Extend JpaRepository with the entity and id types
2. Add derived query methods for every lookup in the use case
3. Use @Query for queries that cannot be derived
4. Return Optional for single-result lookups
5. Return only the Java interface`,

	{catalog.Backend, catalog.Config}: `Generate Spring Boot configuration classes in Java for the specification above.
Rules:
1. Annotate with @Configuration
2. Configure CORS, Jackson and security beans the design requires
3. Bind settings with @ConfigurationProperties instead of hard-coded values
4. Return only the Java classes`,

	{catalog.Backend, catalog.JUnit}: `Generate JUnit 5 tests in Java for the specification above.
Rules:
1. Use Mockito to mock repositories and collaborators
2. Cover the main flow and every business rule violation
3. Name each test after the behaviour it checks
4. Use AssertJ assertions
5. Return only the Java test class`,

	{catalog.Backend, catalog.All}: `Generate the complete Spring Boot backend in Java for the specification above.
Rules:
1. Include the entity, repository, service, controller, configuration and JUnit tests
2. Separate each file with a comment line naming the file path
3. Use constructor injection everywhere
4. Apply validation and transaction rules from the specification
5. Return only source code`,
}

// Template returns the generation rules for a pair. It is empty when the pair
// is not in the catalog.
func Template(target catalog.CodeTarget, component catalog.ComponentType) string {
	return templates[templateKey{target, component}]
}

// BuildPrompt appends the fixed rules for (target, component) to the
// specification text.
func BuildPrompt(target catalog.CodeTarget, component catalog.ComponentType, specification string) string {
	return specification + PromptSeparator + Template(target, component)
}

// SummarizeQuery is the query sent to the summarisation endpoint.
func SummarizeQuery(text string) string {
	return text + "\n\n" + summarizeInstruction
}

// RegenerateQuery asks the generation endpoint to revise an existing file.
func RegenerateQuery(name, content, instruction string) string {
	return fmt.Sprintf(`Revise the file "%s" below according to this instruction: %s

Keep everything that the instruction does not ask to change. Return the complete revised file.

%s`, name, instruction, content)
}

// CompareQuery asks for a requirements coverage report between two artifacts.
func CompareQuery(leftKind, leftText, rightKind, rightText string) string {
	return fmt.Sprintf(`Compare the two artifacts below and report how well the code implements the use case.

Artifact 1 (%s):
%s

Artifact 2 (%s):
%s

Format the report as markdown with these sections:
## Comparison Analysis
### Requirements Coverage
### Missing Requirements
### Code Quality Issues
### Recommendations
### Overall Assessment
Use "- " for bullet points and "1. " for numbered items.`, leftKind, leftText, rightKind, rightText)
}

// SourceFile is a named source file passed to the use-case prompt.
type SourceFile struct {
	Name    string
	Content string
}

// UseCaseQuery asks for use-case documentation derived from legacy code files.
func UseCaseQuery(files []SourceFile) string {
	var b strings.Builder
	b.WriteString("Write use case documentation for the legacy code below.\n\n")
	for _, f := range files {
		fmt.Fprintf(&b, "File: %s\n%s\n\n", f.Name, f.Content)
	}
	b.WriteString(`Format the document as markdown with these sections:
# <System name> Use Case Documentation
## Overview
## Core Functionalities
## Technical Implementation
## API Endpoints
## Database Schema
## Security Considerations`)
	return b.String()
}
