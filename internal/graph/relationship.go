package graph

// RelationshipType is the closed enum of edge kinds the graph model
// supports. New kinds are not added at runtime — every kind the analyzers
// or the mapper can produce is named here.
type RelationshipType uint8

const (
	DirContainsDir RelationshipType = iota
	DirContainsFile
	FileDefines
	FileImports
	DefinesImportedSymbol
	Calls
	AmbiguouslyCalls
	ClassToClass
	ClassToMethod
	ClassToInterface
	ClassToProperty
	ClassToConstructor
	ClassToEnumEntry
	ClassToLambda
	InterfaceToClass
	InterfaceToMethod
	InterfaceToProperty
	InterfaceToInterface
	InterfaceToLambda
	MethodToMethod
	MethodToClass
	MethodToInterface
	MethodToLambda
	MethodToProperty
	LambdaToLambda
	LambdaToClass
	LambdaToMethod
	LambdaToInterface
	LambdaToProperty
	FunctionToFunction
	FunctionToClass
	MethodToFunction

	relationshipTypeCount
)

var relationshipTypeNames = [relationshipTypeCount]string{
	"DirContainsDir",
	"DirContainsFile",
	"FileDefines",
	"FileImports",
	"DefinesImportedSymbol",
	"Calls",
	"AmbiguouslyCalls",
	"ClassToClass",
	"ClassToMethod",
	"ClassToInterface",
	"ClassToProperty",
	"ClassToConstructor",
	"ClassToEnumEntry",
	"ClassToLambda",
	"InterfaceToClass",
	"InterfaceToMethod",
	"InterfaceToProperty",
	"InterfaceToInterface",
	"InterfaceToLambda",
	"MethodToMethod",
	"MethodToClass",
	"MethodToInterface",
	"MethodToLambda",
	"MethodToProperty",
	"LambdaToLambda",
	"LambdaToClass",
	"LambdaToMethod",
	"LambdaToInterface",
	"LambdaToProperty",
	"FunctionToFunction",
	"FunctionToClass",
	"MethodToFunction",
}

func (rt RelationshipType) String() string {
	if int(rt) < len(relationshipTypeNames) {
		return relationshipTypeNames[rt]
	}
	return "Unknown"
}

// definitionRelationshipTable maps (parent kind, child kind) to the
// RelationshipType the parent→child definition-hierarchy pass (C3's
// add_definition_relationships) should emit. Combinations absent from this
// table yield no edge — e.g. a Property never parents anything.
var definitionRelationshipTable = map[[2]DefinitionKind]RelationshipType{
	{KindClass, KindClass}:       ClassToClass,
	{KindClass, KindMethod}:      ClassToMethod,
	{KindClass, KindInterface}:   ClassToInterface,
	{KindClass, KindProperty}:    ClassToProperty,
	{KindClass, KindConstructor}: ClassToConstructor,
	{KindClass, KindEnumEntry}:   ClassToEnumEntry,
	{KindClass, KindLambda}:      ClassToLambda,

	{KindInterface, KindClass}:     InterfaceToClass,
	{KindInterface, KindMethod}:    InterfaceToMethod,
	{KindInterface, KindProperty}:  InterfaceToProperty,
	{KindInterface, KindInterface}: InterfaceToInterface,
	{KindInterface, KindLambda}:    InterfaceToLambda,

	{KindMethod, KindMethod}:    MethodToMethod,
	{KindMethod, KindClass}:     MethodToClass,
	{KindMethod, KindInterface}: MethodToInterface,
	{KindMethod, KindLambda}:    MethodToLambda,
	{KindMethod, KindProperty}:  MethodToProperty,
	{KindMethod, KindFunction}:  MethodToFunction,

	{KindLambda, KindLambda}:    LambdaToLambda,
	{KindLambda, KindClass}:     LambdaToClass,
	{KindLambda, KindMethod}:    LambdaToMethod,
	{KindLambda, KindInterface}: LambdaToInterface,
	{KindLambda, KindProperty}:  LambdaToProperty,

	{KindFunction, KindFunction}: FunctionToFunction,
	{KindFunction, KindClass}:    FunctionToClass,
}

// DefinitionRelationship looks up the edge kind for a parent→child
// definition pair. Ok is false when the combination has no entry in the
// table, in which case add_definition_relationships drops the edge.
func DefinitionRelationship(parent, child DefinitionKind) (RelationshipType, bool) {
	rt, ok := definitionRelationshipTable[[2]DefinitionKind{parent, child}]
	return rt, ok
}

// RelationshipTypeMapping is a stable bidirectional map between
// RelationshipType and the u8 code written into a ConsolidatedRelationship
// table row. The mapping is fixed at compile time (declaration order of
// the RelationshipType enum above) rather than built at runtime, which is
// a stricter guarantee than "same ordering within one project" — it holds
// across every project and every run, so kind_id values are also stable
// inputs to tests and to any external tool reading the column files.
type RelationshipTypeMapping struct{}

// NewRelationshipTypeMapping returns the (stateless) mapping.
func NewRelationshipTypeMapping() *RelationshipTypeMapping {
	return &RelationshipTypeMapping{}
}

// GetTypeID returns the u8 code for rt. Total over the closed enum.
func (*RelationshipTypeMapping) GetTypeID(rt RelationshipType) uint8 {
	return uint8(rt)
}

// GetType returns the RelationshipType for a previously-assigned code.
// Ok is false for codes outside the closed enum's range.
func (*RelationshipTypeMapping) GetType(id uint8) (RelationshipType, bool) {
	if id >= uint8(relationshipTypeCount) {
		return 0, false
	}
	return RelationshipType(id), true
}
