package filter

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		include []string
		exclude []string
		want    bool
	}{
		{
			name:    "include hit",
			text:    "Senior Go Engineer",
			include: []string{"go engineer"},
			want:    true,
		},
		{
			name:    "case insensitive",
			text:    "BACKEND developer",
			include: []string{"Backend"},
			want:    true,
		},
		{
			name:    "no include hit",
			text:    "Product Manager",
			include: []string{"engineer", "developer"},
			want:    false,
		},
		{
			name:    "exclude wins over include",
			text:    "Senior Backend Engineer",
			include: []string{"backend"},
			exclude: []string{"senior"},
			want:    false,
		},
		{
			name: "empty include is permissive",
			text: "Anything at all",
			want: true,
		},
		{
			name:    "empty include still honours exclude",
			text:    "Unpaid internship",
			exclude: []string{"unpaid"},
			want:    false,
		},
		{
			name:    "naive substring",
			text:    "Internet platform",
			include: []string{"net"},
			want:    true,
		},
		{
			name:    "blank terms ignored",
			text:    "Data Analyst",
			include: []string{"  ", ""},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.text, tt.include, tt.exclude); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMatcherEmptyIncludeReject(t *testing.T) {
	m := NewMatcher(nil, []string{"intern"}, EmptyIncludeReject)
	if m.Matches("Backend Engineer") {
		t.Errorf("Matches() = true, want false with reject mode and no include terms")
	}

	m = NewMatcher([]string{"backend"}, nil, EmptyIncludeReject)
	if !m.Matches("Backend Engineer") {
		t.Errorf("Matches() = false, want true when an include term hits")
	}
}

func TestParseEmptyIncludeMode(t *testing.T) {
	if ParseEmptyIncludeMode("REJECT") != EmptyIncludeReject {
		t.Errorf("ParseEmptyIncludeMode(REJECT) should be reject")
	}
	if ParseEmptyIncludeMode("whatever") != EmptyIncludeAccept {
		t.Errorf("ParseEmptyIncludeMode(whatever) should be accept")
	}
}
