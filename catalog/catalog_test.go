package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentsFor(t *testing.T) {
	assert.Equal(t, []ComponentType{HTML, Form, Service, Routing, All}, ComponentsFor(Frontend))
	assert.Equal(t, []ComponentType{Entity, Controller, Service, Repository, Config, JUnit, All}, ComponentsFor(Backend))
	assert.Empty(t, ComponentsFor("mobile"))
}

func TestComponentsForReturnsCopy(t *testing.T) {
	list := ComponentsFor(Frontend)
	list[0] = JUnit
	assert.Equal(t, HTML, ComponentsFor(Frontend)[0])
}

func TestBelongs(t *testing.T) {
	assert.True(t, Belongs(Backend, JUnit))
	assert.True(t, Belongs(Frontend, Service))
	assert.False(t, Belongs(Frontend, Entity))
	assert.False(t, Belongs("", All))
}

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		target    CodeTarget
		component ComponentType
		want      Language
	}{
		{Frontend, HTML, HTMLLang},
		{Frontend, Form, TypeScript},
		{Frontend, All, TypeScript},
		{Backend, Entity, Java},
		{Backend, JUnit, Java},
	}
	for _, tt := range tests {
		t.Run(string(tt.target)+"/"+string(tt.component), func(t *testing.T) {
			assert.Equal(t, tt.want, LanguageFor(tt.target, tt.component))
		})
	}
}

func TestFileNameAndExtension(t *testing.T) {
	assert.Equal(t, "entity_file", FileName(Entity))
	assert.Equal(t, ".java", Extension(Java))
	assert.Equal(t, ".txt", Extension("cobol"))
}

func TestParse(t *testing.T) {
	target, err := ParseTarget("backend")
	assert.NoError(t, err)
	assert.Equal(t, Backend, target)

	_, err = ParseTarget("mobile")
	assert.Error(t, err)

	c, err := ParseComponent(Backend, "entity")
	assert.NoError(t, err)
	assert.Equal(t, Entity, c)

	_, err = ParseComponent(Frontend, "entity")
	assert.ErrorContains(t, err, "not available for frontend")
}
