package tagfilter

import (
	"reflect"
	"testing"
)

func ptr(s string) *string { return &s }

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Spec
	}{
		{"wildcard", "*", All},
		{"padded wildcard is a literal prefix", "  *  ", Spec{Mode: ModePrefixes, Prefixes: []string{"*"}}},
		{"empty", "", None},
		{"whitespace is an empty prefix", "   ", Spec{Mode: ModePrefixes, Prefixes: []string{""}}},
		{"single prefix", "env:", Spec{Mode: ModePrefixes, Prefixes: []string{"env:"}}},
		{"trimmed list", " env: , service: ", Spec{Mode: ModePrefixes, Prefixes: []string{"env:", "service:"}}},
		{"empty elements kept", "env:,,  ,team:", Spec{Mode: ModePrefixes, Prefixes: []string{"env:", "", "", "team:"}}},
		{"only commas", ", ,", Spec{Mode: ModePrefixes, Prefixes: []string{"", "", ""}}},
		{"wildcard element is literal", "env:,*", Spec{Mode: ModePrefixes, Prefixes: []string{"env:", "*"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.expr)
			if got.Mode != tt.want.Mode {
				t.Errorf("Parse(%q).Mode = %v, want %v", tt.expr, got.Mode, tt.want.Mode)
			}
			if tt.want.Mode == ModePrefixes && !reflect.DeepEqual(got.Prefixes, tt.want.Prefixes) {
				t.Errorf("Parse(%q).Prefixes = %q, want %q", tt.expr, got.Prefixes, tt.want.Prefixes)
			}
		})
	}
}

func TestParse_FilterEdgeExpressions(t *testing.T) {
	tags := []string{"env:prod", "service:pay", "host:x1"}

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"trailing comma keeps all", "env:,", tags},
		{"whitespace keeps all", " ", tags},
		{"wildcard element matches literally", "env:,*", []string{"env:prod"}},
		{"empty keeps none", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.expr).Filter(tags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q).Filter() = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestPrefixes_Empty(t *testing.T) {
	if got := Prefixes(); got.Mode != ModeNone {
		t.Errorf("Prefixes().Mode = %v, want none", got.Mode)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		explicit *string
		fallback *string
		want     Mode
	}{
		{"explicit wins", ptr(""), ptr("*"), ModeNone},
		{"process default", nil, ptr("env:"), ModePrefixes},
		{"nothing set", nil, nil, ModeAll},
		{"explicit wildcard", ptr("*"), ptr(""), ModeAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.explicit, tt.fallback); got.Mode != tt.want {
				t.Errorf("Resolve() mode = %v, want %v", got.Mode, tt.want)
			}
		})
	}
}

func TestSpec_Filter(t *testing.T) {
	tags := []string{"env:prod", "service:pay", "host:x1"}

	tests := []struct {
		name string
		spec Spec
		want []string
	}{
		{"prefix list", Prefixes("env:", "service:"), []string{"env:prod", "service:pay"}},
		{"all", All, tags},
		{"zero value is all", Spec{}, tags},
		{"none", None, []string{}},
		{"case sensitive", Prefixes("ENV:"), []string{}},
		{"no implicit delimiter", Prefixes("serv"), []string{"service:pay"}},
		{"order preserved", Prefixes("host:", "env:"), []string{"env:prod", "host:x1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.Filter(tags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpec_FilterDoesNotMutateInput(t *testing.T) {
	tags := []string{"env:prod", "host:x1", "env:dev"}
	before := append([]string(nil), tags...)

	_ = Prefixes("env:").Filter(tags)

	if !reflect.DeepEqual(tags, before) {
		t.Errorf("input mutated: %q, want %q", tags, before)
	}
}

func TestSpec_FilterMap(t *testing.T) {
	bySource := map[string][]string{
		"datadog": {"env:prod", "role:db"},
		"aws":     {"region:us-east-1"},
		"chef":    {"env:staging", "team:core"},
	}

	t.Run("prefix list", func(t *testing.T) {
		got := Prefixes("env:").FilterMap(bySource)
		want := map[string][]string{
			"datadog": {"env:prod"},
			"chef":    {"env:staging"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("FilterMap() = %v, want %v", got, want)
		}
	})

	t.Run("all", func(t *testing.T) {
		if got := All.FilterMap(bySource); !reflect.DeepEqual(got, bySource) {
			t.Errorf("FilterMap() = %v, want input unchanged", got)
		}
	})

	t.Run("none", func(t *testing.T) {
		if got := None.FilterMap(bySource); len(got) != 0 {
			t.Errorf("FilterMap() = %v, want empty", got)
		}
	})

	t.Run("nil map", func(t *testing.T) {
		if got := Prefixes("env:").FilterMap(nil); got != nil {
			t.Errorf("FilterMap(nil) = %v, want nil", got)
		}
	})
}

func TestSpec_String(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"*", "*"},
		{"", ""},
		{" env: , service: ", "env:,service:"},
	}

	for _, tt := range tests {
		got := Parse(tt.expr).String()
		if got != tt.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tt.expr, got, tt.want)
		}
		if again := Parse(got); again.String() != got {
			t.Errorf("round trip of %q = %q", got, again.String())
		}
	}
}

func TestMode_String(t *testing.T) {
	if ModeAll.String() != "all" || ModeNone.String() != "none" || ModePrefixes.String() != "prefixes" {
		t.Error("unexpected Mode strings")
	}
}
