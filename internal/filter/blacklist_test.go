package filter

import "testing"

func TestBlacklistContains(t *testing.T) {
	tests := []struct {
		name    string
		list    []string
		fold    bool
		company string
		want    bool
	}{
		{"exact hit", []string{"Acme"}, false, "Acme", true},
		{"exact is case sensitive", []string{"Acme"}, false, "acme", false},
		{"fold ignores case", []string{"Acme"}, true, "ACME", true},
		{"fold trims", []string{"Acme"}, true, " acme ", true},
		{"miss", []string{"Acme"}, false, "Globex", false},
		{"empty list", nil, false, "Acme", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBlacklist(tt.list, tt.fold)
			if got := b.Contains(tt.company); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.company, got, tt.want)
			}
		})
	}
}

func TestBlacklistNilSafe(t *testing.T) {
	var b *Blacklist
	if b.Contains("Acme") {
		t.Errorf("nil blacklist should contain nothing")
	}
	if b.Len() != 0 {
		t.Errorf("nil blacklist Len() = %d, want 0", b.Len())
	}
}
