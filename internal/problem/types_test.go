package problem

import "testing"

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"Easy", Easy, false},
		{"MEDIUM", Medium, false},
		{" hard ", Hard, false},
		{"expert", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDifficulty(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVerdictFromStatus(t *testing.T) {
	if v := VerdictFromStatus(10); v != VerdictAccepted {
		t.Errorf("status 10 = %q, want accepted", v)
	}
	for _, status := range []int{0, 11, 14, 15, 20} {
		if v := VerdictFromStatus(status); v != VerdictOther {
			t.Errorf("status %d = %q, want other", status, v)
		}
	}
}

func TestIdentityUser(t *testing.T) {
	if u := (Identity{Username: "alice", IsSignedIn: true}).User(); u != "alice" {
		t.Errorf("signed in user = %q", u)
	}
	if u := (Identity{Username: "alice", IsSignedIn: false}).User(); u != "" {
		t.Errorf("signed out user = %q, want empty", u)
	}
}

func TestDifficultyFilter(t *testing.T) {
	if got := Medium.Filter(); got != "MEDIUM" {
		t.Errorf("Filter() = %q", got)
	}
}
