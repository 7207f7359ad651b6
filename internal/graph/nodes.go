package graph

import "github.com/kgraph-dev/kgindex/internal/rangeintern"

// DirectoryNode represents one directory below the project root.
// Path is relative to the project root and is the primary key; two
// DirectoryNodes with equal Path refer to the same directory.
type DirectoryNode struct {
	Path           string
	AbsolutePath   string
	RepositoryName string
	Name           string
}

// FileNode represents one source file. Path is the primary key.
type FileNode struct {
	Path           string
	AbsolutePath   string
	Language       Language
	RepositoryName string
	Extension      string
	Name           string
}

// DefinitionKind is the simplified, language-independent shape a
// DefinitionType collapses to for relationship purposes (see Simplify).
type DefinitionKind string

const (
	KindClass       DefinitionKind = "class"
	KindInterface   DefinitionKind = "interface"
	KindMethod      DefinitionKind = "method"
	KindFunction    DefinitionKind = "function"
	KindConstructor DefinitionKind = "constructor"
	KindProperty    DefinitionKind = "property"
	KindEnumEntry   DefinitionKind = "enum_entry"
	KindLambda      DefinitionKind = "lambda"
)

// DefinitionType is the language-tagged, fine-grained definition kind
// reported by an analyzer (e.g. "data_class", "value_class", "object" for
// Kotlin all simplify to KindClass). Simplify is the authority on which
// raw values exist per language; unknown raw values yield ("", false) and
// the caller drops the would-be relationship rather than guessing.
type DefinitionType struct {
	Language Language
	Raw      string
}

var simplifyTable = map[Language]map[string]DefinitionKind{
	LanguageGo: {
		"struct":    KindClass,
		"interface": KindInterface,
		"method":    KindMethod,
		"function":  KindFunction,
	},
	LanguagePython: {
		"class":    KindClass,
		"method":   KindMethod,
		"function": KindFunction,
		"property": KindProperty,
	},
	LanguageJavaScript: {
		"class":         KindClass,
		"method":        KindMethod,
		"function":      KindFunction,
		"arrow_lambda":  KindLambda,
		"getter":        KindProperty,
		"setter":        KindProperty,
	},
	LanguageTypeScript: {
		"class":        KindClass,
		"interface":    KindInterface,
		"method":       KindMethod,
		"function":     KindFunction,
		"arrow_lambda": KindLambda,
		"getter":       KindProperty,
		"setter":       KindProperty,
	},
	LanguageJava: {
		"class":       KindClass,
		"interface":   KindInterface,
		"enum":        KindClass,
		"enum_entry":  KindEnumEntry,
		"method":      KindMethod,
		"constructor": KindConstructor,
		"field":       KindProperty,
		"lambda":      KindLambda,
	},
	LanguageKotlin: {
		"class":            KindClass,
		"data_class":       KindClass,
		"value_class":      KindClass,
		"annotation_class": KindClass,
		"object":           KindClass,
		"interface":        KindInterface,
		"enum_entry":       KindEnumEntry,
		"method":           KindMethod,
		"constructor":      KindConstructor,
		"property":         KindProperty,
		"lambda":           KindLambda,
		"extension_function": KindMethod,
	},
	LanguageCSharp: {
		"class":            KindClass,
		"interface":        KindInterface,
		"struct":           KindClass,
		"enum":              KindClass,
		"enum_entry":       KindEnumEntry,
		"method":           KindMethod,
		"constructor":      KindConstructor,
		"property":         KindProperty,
		"lambda":           KindLambda,
		"extension_method": KindMethod,
	},
	LanguageRuby: {
		"class":    KindClass,
		"module":   KindClass,
		"method":   KindMethod,
		"lambda":   KindLambda,
		"constant": KindProperty,
	},
	LanguagePHP: {
		"class":       KindClass,
		"interface":   KindInterface,
		"trait":       KindClass,
		"method":      KindMethod,
		"function":    KindFunction,
		"constructor": KindConstructor,
		"property":    KindProperty,
		"closure":     KindLambda,
	},
}

// Simplify collapses a language-specific DefinitionType to its
// relationship-table kind. Ok is false for raw values not registered for
// that language; callers must drop the dependent edge rather than guess.
func (dt DefinitionType) Simplify() (kind DefinitionKind, ok bool) {
	table, ok := simplifyTable[dt.Language]
	if !ok {
		return "", false
	}
	kind, ok = table[dt.Raw]
	return kind, ok
}

// DefinitionNode represents one definition (class, method, function, ...).
// Identity is (FilePath, Range.StartByte/EndByte) — see Invariants in
// SPEC_FULL.md §3.
type DefinitionNode struct {
	FQN            string
	Name           string
	DefinitionType DefinitionType
	Range          *rangeintern.Range
	FilePath       string
}

// ImportIdentifier names a single imported symbol and its optional alias.
type ImportIdentifier struct {
	Name  string
	Alias string
}

// ImportedSymbolNode represents one imported symbol or module reference.
// Identity is (FilePath, Location.StartByte/EndByte).
type ImportedSymbolNode struct {
	ImportType string
	ImportPath string
	Identifier *ImportIdentifier
	Location   *rangeintern.Range
	FilePath   string
}
