package schema

import (
	"testing"

	// Packages
	cmp "github.com/google/go-cmp/cmp"
)

func Test_Body_Append(t *testing.T) {
	type field struct {
		name, value string
	}
	tests := []struct {
		name   string
		fields []field
		want   Body
	}{
		{
			name:   "flat fields",
			fields: []field{{"name", "Gopher"}, {"key", "value"}, {"abc", "xyz"}},
			want:   Body{"name": "Gopher", "key": "value", "abc": "xyz"},
		},
		{
			name: "empty and repeated fields",
			fields: []field{
				{"name", "Gopher"}, {"key", ""},
				{"checkboxfull", "cb1"}, {"checkboxfull", "cb2"},
				{"checkboxhalfempty", "cb1"}, {"checkboxhalfempty", ""},
				{"checkboxempty", ""}, {"checkboxempty", ""},
			},
			want: Body{
				"name":              "Gopher",
				"key":               "",
				"checkboxfull":      []any{"cb1", "cb2"},
				"checkboxhalfempty": []any{"cb1", ""},
				"checkboxempty":     []any{"", ""},
			},
		},
		{
			name:   "repeated values keep arrival order",
			fields: []field{{"a", "1"}, {"a", "2"}, {"a", "3"}},
			want:   Body{"a": []any{"1", "2", "3"}},
		},
		{
			name:   "indexed list",
			fields: []field{{"list[0]", "a"}, {"list[1]", "b"}},
			want:   Body{"list": []any{"a", "b"}},
		},
		{
			name:   "list converted into object",
			fields: []field{{"obj[0]", "a"}, {"obj[2]", "c"}, {"obj[x]", "yz"}},
			want:   Body{"obj": map[string]any{"0": "a", "2": "c", "x": "yz"}},
		},
		{
			name:   "nested object",
			fields: []field{{"user[name]", "ada"}, {"user[address][city]", "london"}},
			want: Body{"user": map[string]any{
				"name":    "ada",
				"address": map[string]any{"city": "london"},
			}},
		},
		{
			name:   "append suffix",
			fields: []field{{"tags[]", "x"}},
			want:   Body{"tags": []any{"x"}},
		},
		{
			name:   "scalar then object",
			fields: []field{{"a", "1"}, {"a[b]", "2"}},
			want:   Body{"a": map[string]any{"": "1", "b": "2"}},
		},
		{
			name:   "object then scalar",
			fields: []field{{"a[b]", "2"}, {"a", "1"}},
			want:   Body{"a": map[string]any{"": "1", "b": "2"}},
		},
		{
			name:   "unparsable name kept verbatim",
			fields: []field{{"[x]", "1"}, {"a[]b", "2"}, {"c[d", "3"}},
			want:   Body{"[x]": "1", "a[]b": "2", "c[d": "3"},
		},
		{
			name:   "large index becomes key",
			fields: []field{{"big[5000]", "v"}},
			want:   Body{"big": map[string]any{"5000": "v"}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			body := make(Body)
			for _, f := range test.fields {
				body.Append(f.name, f.value)
			}
			if diff := cmp.Diff(test.want, body); diff != "" {
				t.Errorf("Append() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
