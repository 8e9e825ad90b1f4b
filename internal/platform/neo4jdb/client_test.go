package neo4jdb

import "testing"

func TestPositiveEnvIntRejectsNonPositiveValues(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  int
	}{
		{"unset keeps default", "", 10},
		{"zero keeps default", "0", 10},
		{"negative keeps default", "-5", 10},
		{"garbage keeps default", "plenty", 10},
		{"positive overrides", "30", 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.value != "" {
				t.Setenv("NEO4J_TIMEOUT_SECONDS", tc.value)
			}
			if got := positiveEnvInt("NEO4J_TIMEOUT_SECONDS", 10); got != tc.want {
				t.Fatalf("positiveEnvInt(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}
