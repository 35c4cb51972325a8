package cnext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNativeHeaderExtractsDeclarationKinds(t *testing.T) {
	src := `
#ifndef DRIVER_H
#define DRIVER_H

typedef struct {
    int x;
    int y;
} Point;

typedef enum {
    STATE_IDLE,
    STATE_RUNNING
} State;

struct Opaque;

typedef unsigned int DriverHandle;

extern int g_driver_count;

int driver_init(int flags);

#endif
`
	syms := ParseNativeHeader([]byte(src))

	byName := map[string]NativeSymbol{}
	for _, s := range syms {
		byName[s.Name] = s
	}

	require.Equal(t, NativeStruct, byName["Point"].Kind)
	require.Equal(t, NativeEnum, byName["State"].Kind)
	require.Equal(t, NativeOpaque, byName["Opaque"].Kind)
	require.Equal(t, NativeTypedef, byName["DriverHandle"].Kind)
	require.Equal(t, NativeVar, byName["g_driver_count"].Kind)
	require.Equal(t, NativeFunc, byName["driver_init"].Kind)
}

func TestParseNativeHeaderSkipsGeneratedMarker(t *testing.T) {
	src := GeneratedMarker("foo.cnx") + "\nextern int whatever;\n"
	syms := ParseNativeHeader([]byte(src))
	require.Empty(t, syms)
}

func TestParseNativeHeaderHandlesNamespace(t *testing.T) {
	src := `
namespace drivers {
    struct Config { int baud; };
    void init();
}
`
	syms := ParseNativeHeader([]byte(src))
	var sawNamespace, sawConfig bool
	for _, s := range syms {
		if s.Kind == NativeNamespace && s.Name == "drivers" {
			sawNamespace = true
		}
		if s.Kind == NativeStruct && s.Name == "Config" {
			sawConfig = true
		}
	}
	require.True(t, sawNamespace)
	require.True(t, sawConfig)
}

func TestCodeGenSymbolsMergeNativeSymbolsResolves(t *testing.T) {
	syms := NewCodeGenSymbols()
	syms.MergeNativeSymbols([]NativeSymbol{{Kind: NativeStruct, Name: "ExternalThing"}})
	require.True(t, syms.ExternalTypes["ExternalThing"])
}
