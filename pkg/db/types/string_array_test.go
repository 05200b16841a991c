package dbtypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringArrayValueQuotesElements(t *testing.T) {
	v, err := StringArray{"vegan", `gluten "free"`, "a,b"}.Value()
	require.NoError(t, err)
	require.Equal(t, `{"vegan","gluten \"free\"","a,b"}`, v)
}

func TestStringArrayScanPostgresLiterals(t *testing.T) {
	var a StringArray
	require.NoError(t, a.Scan(`{vegan,"gluten free","a,b"}`))
	require.Equal(t, StringArray{"vegan", "gluten free", "a,b"}, a)

	require.NoError(t, a.Scan([]byte("{}")))
	require.Empty(t, a)

	require.NoError(t, a.Scan(nil))
	require.Empty(t, a)

	require.Error(t, a.Scan("vegan"))
	require.Error(t, a.Scan(42))
}

func TestStringArrayRoundTripsThroughValue(t *testing.T) {
	in := StringArray{"mon", "wed", `back\slash`}
	raw, err := in.Value()
	require.NoError(t, err)

	var out StringArray
	require.NoError(t, out.Scan(raw))
	require.Equal(t, in, out)
	require.True(t, out.Contains("wed"))
	require.False(t, out.Contains("fri"))
}

func TestUUIDArrayScanAndValue(t *testing.T) {
	var ids UUIDArray
	require.NoError(t, ids.Scan(`{"6f1c2a7e-1d8e-4c1e-9a57-0b3e0f5c1a11",6f1c2a7e-1d8e-4c1e-9a57-0b3e0f5c1a12}`))
	require.Len(t, ids, 2)

	v, err := ids.Value()
	require.NoError(t, err)
	require.Equal(t, "{6f1c2a7e-1d8e-4c1e-9a57-0b3e0f5c1a11,6f1c2a7e-1d8e-4c1e-9a57-0b3e0f5c1a12}", v)

	require.Error(t, ids.Scan("{not-a-uuid}"))
}
