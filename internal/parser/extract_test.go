package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kgraph-dev/kgindex/internal/graph"
)

func TestSupported_KnownLanguages(t *testing.T) {
	for _, lang := range []graph.Language{
		graph.LanguageGo, graph.LanguagePython, graph.LanguageJavaScript,
		graph.LanguageTypeScript, graph.LanguageJava, graph.LanguageKotlin,
		graph.LanguageCSharp, graph.LanguageRuby, graph.LanguagePHP,
	} {
		assert.True(t, Supported(lang), "expected grammar registered for %s", lang)
	}
}

func TestSupported_UnknownLanguageFalse(t *testing.T) {
	assert.False(t, Supported(graph.LanguageUnknown))
}

func TestParse_UnsupportedLanguageReturnsFalse(t *testing.T) {
	_, ok := Parse(graph.LanguageUnknown, []byte("anything"))
	assert.False(t, ok)
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "fmt", stripQuotes(`"fmt"`))
	assert.Equal(t, "os", stripQuotes(`'os'`))
	assert.Equal(t, "bare", stripQuotes("bare"))
	assert.Equal(t, "", stripQuotes(""))
}

func TestParse_Go_FindsFunctionAndImport(t *testing.T) {
	src := []byte(`package main

import "fmt"

func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}
`)
	result, ok := Parse(graph.LanguageGo, src)
	if !ok {
		t.Skip("go grammar not registered in this build")
	}

	var sawGreet, sawImport bool
	for _, d := range result.Definitions {
		if d.Kind == "function" && d.Name == "Greet" {
			sawGreet = true
		}
	}
	for _, imp := range result.Imports {
		if imp.Path == "fmt" {
			sawImport = true
		}
	}
	assert.True(t, sawGreet, "expected Greet function definition")
	assert.True(t, sawImport, "expected fmt import")
}
