package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlavor_Accepts(t *testing.T) {
	dynamic := DistributionRecord{SupportsPrebuiltExtensionModules: true}
	static := DistributionRecord{SupportsPrebuiltExtensionModules: false}

	tests := []struct {
		flavor      Flavor
		wantDynamic bool
		wantStatic  bool
	}{
		{FlavorStandalone, true, true},
		{FlavorStandaloneStatic, false, true},
		{FlavorStandaloneDynamic, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.flavor.String(), func(t *testing.T) {
			require.Equal(t, tt.wantDynamic, tt.flavor.Accepts(dynamic))
			require.Equal(t, tt.wantStatic, tt.flavor.Accepts(static))
		})
	}
}

func TestParseFlavor(t *testing.T) {
	tests := []struct {
		in      string
		want    Flavor
		wantErr bool
	}{
		{"standalone", FlavorStandalone, false},
		{"standalone_static", FlavorStandaloneStatic, false},
		{"standalone-static", FlavorStandaloneStatic, false},
		{"  Standalone_Dynamic ", FlavorStandaloneDynamic, false},
		{"", FlavorStandalone, true},
		{"shared", FlavorStandalone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFlavor(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFlavor_StringRoundTrip(t *testing.T) {
	for _, f := range []Flavor{FlavorStandalone, FlavorStandaloneStatic, FlavorStandaloneDynamic} {
		parsed, err := ParseFlavor(f.String())
		require.NoError(t, err)
		require.Equal(t, f, parsed)
	}
	require.Equal(t, "Flavor(7)", Flavor(7).String())
}

func TestHostTriple(t *testing.T) {
	triple, ok := HostTriple("linux", "amd64")
	require.True(t, ok)
	require.Equal(t, TripleX8664LinuxGNU, triple)

	triple, ok = HostTriple("darwin", "arm64")
	require.True(t, ok)
	require.Equal(t, TripleAarch64AppleDarwin, triple)

	_, ok = HostTriple("plan9", "arm")
	require.False(t, ok)

	for _, goosArch := range [][2]string{{"darwin", "amd64"}, {"windows", "386"}, {"windows", "amd64"}} {
		triple, ok := HostTriple(goosArch[0], goosArch[1])
		require.True(t, ok)
		require.True(t, IsKnownTriple(triple), triple)
	}
}

func TestKnownTriples_SortedCopy(t *testing.T) {
	triples := KnownTriples()
	require.IsIncreasing(t, triples)

	triples[0] = "mutated"
	require.True(t, IsKnownTriple(TripleAarch64AppleDarwin))
	require.False(t, IsKnownTriple("mutated"))
}

func TestLocation_String(t *testing.T) {
	var loc Location = RemoteLocation{URL: "https://example.com/a.tar.zst", SHA256: "00"}
	require.Equal(t, "https://example.com/a.tar.zst", loc.String())

	loc = LocalLocation{Path: "/opt/runtime"}
	require.Equal(t, "/opt/runtime", loc.String())
}
