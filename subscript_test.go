package cnext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifySubscriptArrayElementSingleIndex(t *testing.T) {
	require.Equal(t, SubscriptArrayElement, ClassifySubscript(Type{Kind: KindArray}, 1, false))
}

func TestClassifySubscriptArraySliceTwoIndices(t *testing.T) {
	require.Equal(t, SubscriptArraySlice, ClassifySubscript(Type{Kind: KindArray}, 2, false))
}

func TestClassifySubscriptBitSingleOnInteger(t *testing.T) {
	require.Equal(t, SubscriptBitSingle, ClassifySubscript(Type{Kind: KindU32}, 1, false))
}

func TestClassifySubscriptBitRangeOnInteger(t *testing.T) {
	require.Equal(t, SubscriptBitRange, ClassifySubscript(Type{Kind: KindU32}, 2, false))
}

func TestClassifySubscriptRegisterAccessForcesBitAddressing(t *testing.T) {
	// A register member's static type might not itself be an integer
	// kind the ordinary base.IsInteger() check would catch (e.g. an
	// unresolved/void placeholder), but isRegisterAccess must still force
	// bit addressing rather than array-element access.
	require.Equal(t, SubscriptBitSingle, ClassifySubscript(Type{Kind: KindVoid}, 1, true))
}

func TestClassifySubscriptNonArrayNonIntegerFallsBackToArrayElement(t *testing.T) {
	require.Equal(t, SubscriptArrayElement, ClassifySubscript(Type{Kind: KindF32}, 1, false))
}
