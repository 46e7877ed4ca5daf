package healthguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryTableEncode(t *testing.T) {
	tests := []struct {
		name  string
		table *CategoryTable
		label string
		want  int
	}{
		{"canonical", smokingTable, "Former", 1},
		{"case insensitive", smokingTable, "not current", 3},
		{"alias", smokingTable, "No Info", 5},
		{"underscore alias", smokingTable, "not_current", 3},
		{"surrounding space", genderTable, "  Male ", 1},
		{"full width", genderTable, "Ｍａｌｅ", 1},
		{"numeric code", chestPainTable, "2", 2},
		{"yes alias", yesNoTable("fbs"), "True", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.table.Encode(tt.label)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryTableEncode_UnknownLabel(t *testing.T) {
	_, err := chestPainTable.Encode("Unknown")
	require.ErrorIs(t, err, ErrUnmappedCategory)
	var catErr *CategoryError
	require.True(t, errors.As(err, &catErr))
	require.Equal(t, "cp", catErr.Feature)
	require.Equal(t, "Unknown", catErr.Value)
}

func TestCategoryTableEncode_CodesOnlyWhenEnabled(t *testing.T) {
	_, err := smokingTable.Encode("2")
	require.ErrorIs(t, err, ErrUnmappedCategory)

	_, err = chestPainTable.Encode("4")
	require.ErrorIs(t, err, ErrUnmappedCategory)
}

func TestCategoryTableEncode_OnlyCanonicalDigits(t *testing.T) {
	code, err := chestPainTable.Encode(" 1 ")
	require.NoError(t, err)
	require.Equal(t, 1, code)

	for _, raw := range []string{"+1", "01", "-0", "1.0"} {
		_, err := chestPainTable.Encode(raw)
		require.ErrorIs(t, err, ErrUnmappedCategory, raw)
	}
}

func TestCategoryTableLabelAndOptions(t *testing.T) {
	label, ok := thalTable.Label(2)
	require.True(t, ok)
	require.Equal(t, "Reversible Defect", label)

	_, ok = thalTable.Label(3)
	require.False(t, ok)

	opts := slopeTable.Options()
	require.Equal(t, []string{"Upsloping", "Flat", "Downsloping"}, opts)
	opts[0] = "changed"
	require.Equal(t, "Upsloping", slopeTable.Labels[0])
}
