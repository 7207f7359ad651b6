// Package parser wraps go-tree-sitter: one *sitter.Parser and one capture
// query per language, producing the raw definitions/imports/references
// the analyzer (C3) consumes. Parsing is a pure function of (language,
// content) — no file-system access happens in this package.
package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_kotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/kgraph-dev/kgindex/internal/graph"
)

// grammarQuery is everything one language needs: its sitter.Language and
// the single capture query that locates definitions, imports and calls.
// Capture names for definitions are chosen to equal the Raw strings
// graph.DefinitionType.Simplify's per-language table already expects
// (internal/graph/nodes.go simplifyTable) — the parser and the simplifier
// agree on vocabulary instead of translating between two name sets.
type grammarQuery struct {
	language *sitter.Language
	query    *sitter.Query
}

var registry = map[graph.Language]*grammarQuery{}

func register(lang graph.Language, sitterLang *sitter.Language, queryStr string) {
	q, err := sitter.NewQuery(sitterLang, queryStr)
	if err != nil || q == nil {
		// A query that fails to compile disables parsing for that
		// language rather than panicking the whole registry — files in
		// that language still get a FileNode via the directory walk,
		// they just contribute no definitions this run.
		return
	}
	registry[lang] = &grammarQuery{language: sitterLang, query: q}
}

func init() {
	register(graph.LanguageGo, sitter.NewLanguage(tree_sitter_go.Language()), `
        (function_declaration name: (identifier) @function.name) @function
        (method_declaration
            receiver: (parameter_list) @method.receiver
            name: (field_identifier) @method.name) @method
        (type_spec
            name: (type_identifier) @struct.name
            type: (struct_type)) @struct
        (type_spec
            name: (type_identifier) @interface.name
            type: (interface_type)) @interface
        (func_literal) @lambda
        (import_spec path: (interpreted_string_literal) @import.path) @import
    `)

	register(graph.LanguagePython, sitter.NewLanguage(tree_sitter_python.Language()), `
        (class_definition
            body: (block
                (function_definition name: (identifier) @method.name))) @method
        (function_definition name: (identifier) @function.name) @function
        (class_definition name: (identifier) @class.name) @class
        (decorated_definition
            (decorator) @property.decorator
            definition: (function_definition name: (identifier) @property.name)) @property
        (import_statement) @import
        (import_from_statement) @import
        (call) @call
    `)

	register(graph.LanguageJavaScript, sitter.NewLanguage(tree_sitter_javascript.Language()), `
        (function_declaration name: (identifier) @function.name) @function
        (generator_function_declaration name: (identifier) @function.name) @function
        (variable_declarator
            name: (identifier) @arrow_lambda.name
            value: [(arrow_function) (function_expression)]) @arrow_lambda
        (method_definition name: (property_identifier) @method.name) @method
        (method_definition name: (property_identifier) @getter.name kind: "get") @getter
        (method_definition name: (property_identifier) @setter.name kind: "set") @setter
        (class_declaration name: (identifier) @class.name) @class
        (import_statement source: (string) @import.path) @import
        (call_expression function: (identifier) @call.callee) @call
        (call_expression function: (member_expression property: (property_identifier) @call.callee)) @call
    `)

	register(graph.LanguageTypeScript, sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), `
        (function_declaration name: (identifier) @function.name) @function
        (method_definition name: (property_identifier) @method.name) @method
        (method_definition name: (property_identifier) @getter.name kind: "get") @getter
        (method_definition name: (property_identifier) @setter.name kind: "set") @setter
        (variable_declarator
            name: (identifier) @arrow_lambda.name
            value: [(arrow_function) (function_expression)]) @arrow_lambda
        (class_declaration name: (type_identifier) @class.name) @class
        (interface_declaration name: (type_identifier) @interface.name) @interface
        (import_statement source: (string) @import.path) @import
        (call_expression function: (identifier) @call.callee) @call
        (call_expression function: (member_expression property: (property_identifier) @call.callee)) @call
    `)

	register(graph.LanguageJava, sitter.NewLanguage(tree_sitter_java.Language()), `
        (method_declaration name: (identifier) @method.name) @method
        (constructor_declaration name: (identifier) @constructor.name) @constructor
        (class_declaration name: (identifier) @class.name) @class
        (interface_declaration name: (identifier) @interface.name) @interface
        (enum_declaration name: (identifier) @enum.name) @enum
        (enum_constant name: (identifier) @enum_entry.name) @enum_entry
        (field_declaration declarator: (variable_declarator name: (identifier) @field.name)) @field
        (lambda_expression) @lambda
        (import_declaration) @import
        (method_invocation name: (identifier) @call.callee) @call
    `)

	register(graph.LanguageKotlin, sitter.NewLanguage(tree_sitter_kotlin.Language()), `
        (class_declaration (type_identifier) @class.name) @class
        (object_declaration (type_identifier) @object.name) @object
        (function_declaration (simple_identifier) @method.name) @method
        (primary_constructor) @constructor
        (property_declaration (variable_declaration (simple_identifier) @property.name)) @property
        (anonymous_function) @lambda
        (import_header) @import
        (call_expression (simple_identifier) @call.callee) @call
    `)

	register(graph.LanguageCSharp, sitter.NewLanguage(tree_sitter_csharp.Language()), `
        (method_declaration name: (identifier) @method.name) @method
        (constructor_declaration name: (identifier) @constructor.name) @constructor
        (class_declaration name: (identifier) @class.name) @class
        (interface_declaration name: (identifier) @interface.name) @interface
        (struct_declaration name: (identifier) @struct.name) @struct
        (enum_declaration name: (identifier) @enum.name) @enum
        (enum_member_declaration name: (identifier) @enum_entry.name) @enum_entry
        (property_declaration name: (identifier) @property.name) @property
        (lambda_expression) @lambda
        (using_directive) @import
        (invocation_expression function: (identifier) @call.callee) @call
    `)

	register(graph.LanguageRuby, sitter.NewLanguage(tree_sitter_ruby.Language()), `
        (class (constant) @class.name) @class
        (module (constant) @class.name) @class
        (method name: (identifier) @method.name) @method
        (assignment left: (constant) @constant.name) @constant
        (lambda) @lambda
        (block) @lambda
        (call method: (identifier) @call.callee) @call
    `)

	register(graph.LanguagePHP, sitter.NewLanguage(tree_sitter_php.LanguagePHP()), `
        (class_declaration name: (name) @class.name) @class
        (interface_declaration name: (name) @interface.name) @interface
        (trait_declaration name: (name) @trait.name) @trait
        (function_definition name: (name) @function.name) @function
        (method_declaration name: (name) @method.name) @method
        (property_declaration (property_element (variable_name) @property.name)) @property
        (anonymous_function_creation_expression) @closure
        (namespace_use_declaration) @import
        (function_call_expression function: (name) @call.callee) @call
    `)
}

// ParserFor returns a fresh *sitter.Parser for lang, or nil if lang has no
// registered grammar (LanguageUnknown, or a grammar whose query failed to
// compile). Parsers are not safe for concurrent use, so the parse-phase
// worker pool (C7) creates one per task rather than sharing a package-level
// instance.
func ParserFor(lang graph.Language) *sitter.Parser {
	g, ok := registry[lang]
	if !ok {
		return nil
	}
	p := sitter.NewParser()
	if err := p.SetLanguage(g.language); err != nil {
		return nil
	}
	return p
}

func queryFor(lang graph.Language) *sitter.Query {
	g, ok := registry[lang]
	if !ok {
		return nil
	}
	return g.query
}

// Supported reports whether lang has a usable grammar + query registered.
func Supported(lang graph.Language) bool {
	_, ok := registry[lang]
	return ok
}
