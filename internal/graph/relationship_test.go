package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipTypeMapping_TotalAndStable(t *testing.T) {
	mapping := NewRelationshipTypeMapping()

	for rt := DirContainsDir; rt < relationshipTypeCount; rt++ {
		id := mapping.GetTypeID(rt)
		back, ok := mapping.GetType(id)
		require.True(t, ok)
		assert.Equal(t, rt, back)
	}
}

func TestRelationshipTypeMapping_UnknownCodeRejected(t *testing.T) {
	mapping := NewRelationshipTypeMapping()

	_, ok := mapping.GetType(uint8(relationshipTypeCount))
	assert.False(t, ok)
}

func TestDefinitionRelationship_KnownPairs(t *testing.T) {
	rt, ok := DefinitionRelationship(KindClass, KindMethod)
	require.True(t, ok)
	assert.Equal(t, ClassToMethod, rt)

	rt, ok = DefinitionRelationship(KindInterface, KindInterface)
	require.True(t, ok)
	assert.Equal(t, InterfaceToInterface, rt)
}

func TestDefinitionRelationship_UnknownPairDropped(t *testing.T) {
	_, ok := DefinitionRelationship(KindLambda, KindInterface+"-not-real")
	assert.False(t, ok)
}

func TestSimplify_KotlinClassVariantsCollapseToClass(t *testing.T) {
	for _, raw := range []string{"class", "data_class", "value_class", "annotation_class", "object"} {
		kind, ok := DefinitionType{Language: LanguageKotlin, Raw: raw}.Simplify()
		require.True(t, ok, raw)
		assert.Equal(t, KindClass, kind, raw)
	}
}

func TestSimplify_UnknownRawValueRejected(t *testing.T) {
	_, ok := DefinitionType{Language: LanguageGo, Raw: "not_a_real_kind"}.Simplify()
	assert.False(t, ok)
}
