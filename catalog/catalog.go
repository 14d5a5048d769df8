// Package catalog holds the fixed taxonomy of code targets, component types
// and output languages offered by the generation wizard.
package catalog

import "fmt"

// CodeTarget is the side of the application code is generated for.
type CodeTarget string

const (
	Frontend CodeTarget = "frontend"
	Backend  CodeTarget = "backend"
)

// ComponentType is a code artifact category offered for a target.
type ComponentType string

const (
	HTML       ComponentType = "html"
	Form       ComponentType = "form"
	Service    ComponentType = "service"
	Routing    ComponentType = "routing"
	Entity     ComponentType = "entity"
	Controller ComponentType = "controller"
	Repository ComponentType = "repository"
	Config     ComponentType = "config"
	JUnit      ComponentType = "junit"
	All        ComponentType = "all"
)

// Language tags a generated file's source language.
type Language string

const (
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	HTMLLang   Language = "html"
	CSS        Language = "css"
	Java       Language = "java"
	XML        Language = "xml"
)

var components = map[CodeTarget][]ComponentType{
	Frontend: {HTML, Form, Service, Routing, All},
	Backend:  {Entity, Controller, Service, Repository, Config, JUnit, All},
}

var extensions = map[Language]string{
	TypeScript: ".ts",
	JavaScript: ".js",
	HTMLLang:   ".html",
	CSS:        ".css",
	Java:       ".java",
	XML:        ".xml",
}

// Targets returns the code targets in display order.
func Targets() []CodeTarget {
	return []CodeTarget{Frontend, Backend}
}

// ComponentsFor returns the component types offered for target, in display order.
// An unknown target has no components.
func ComponentsFor(target CodeTarget) []ComponentType {
	list := components[target]
	out := make([]ComponentType, len(list))
	copy(out, list)
	return out
}

// IsValidTarget reports whether target is one of the known code targets.
func IsValidTarget(target CodeTarget) bool {
	_, ok := components[target]
	return ok
}

// Belongs reports whether component is offered for target.
func Belongs(target CodeTarget, component ComponentType) bool {
	for _, c := range components[target] {
		if c == component {
			return true
		}
	}
	return false
}

// LanguageFor returns the language a generated file for the pair is tagged with.
// Frontend html components are html, every other frontend component is typescript,
// and every backend component is java.
func LanguageFor(target CodeTarget, component ComponentType) Language {
	if target == Backend {
		return Java
	}
	if component == HTML {
		return HTMLLang
	}
	return TypeScript
}

// FileName returns the id and display name of the file produced for a component.
func FileName(component ComponentType) string {
	return fmt.Sprintf("%s_file", component)
}

// Extension returns the download file extension for lang, including the dot.
func Extension(lang Language) string {
	if ext, ok := extensions[lang]; ok {
		return ext
	}
	return ".txt"
}

// ParseTarget converts user input to a CodeTarget.
func ParseTarget(s string) (CodeTarget, error) {
	t := CodeTarget(s)
	if !IsValidTarget(t) {
		return "", fmt.Errorf("unknown code target %q", s)
	}
	return t, nil
}

// ParseComponent converts user input to a ComponentType valid for target.
func ParseComponent(target CodeTarget, s string) (ComponentType, error) {
	c := ComponentType(s)
	if !Belongs(target, c) {
		return "", fmt.Errorf("component type %q is not available for %s", s, target)
	}
	return c, nil
}
