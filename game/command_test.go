package game

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Action
	}{
		{"MOVE UP", Action{Kind: ActMove, Dir: DirUp, Target: -1}},
		{"move down", Action{Kind: ActMove, Dir: DirDown, Target: -1}},
		{"  Move   Left \r", Action{Kind: ActMove, Dir: DirLeft, Target: -1}},
		{"MOVE RIGHT", Action{Kind: ActMove, Dir: DirRight, Target: -1}},
		{"ATTACK UP", Action{Kind: ActAttack, Dir: DirUp, Target: -1}},
		{"attack right", Action{Kind: ActAttack, Dir: DirRight, Target: -1}},
		{"ATTACK b", Action{Kind: ActAttack, Target: 1}},
		{"QUIT", Action{Kind: ActQuit, Target: -1}},
		{"quit now", Action{Kind: ActQuit, Target: -1}},
		{"", Action{Kind: ActUnrecognized, Target: -1}},
		{"MOVE", Action{Kind: ActUnrecognized, Target: -1}},
		{"MOVE SIDEWAYS", Action{Kind: ActUnrecognized, Target: -1}},
		{"MOVE UP UP", Action{Kind: ActUnrecognized, Target: -1}},
		{"ATTACK", Action{Kind: ActUnrecognized, Target: -1}},
		{"ATTACK 7", Action{Kind: ActUnrecognized, Target: -1}},
		{"DANCE", Action{Kind: ActUnrecognized, Target: -1}},
	}
	for _, tc := range tests {
		if got := Parse(tc.line); got != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.line, got, tc.want)
		}
	}
}

func TestActionString(t *testing.T) {
	if got := Parse("attack left").String(); got != "ATTACK LEFT" {
		t.Fatalf("got %q", got)
	}
	if got := Parse("attack c").String(); got != "ATTACK C" {
		t.Fatalf("got %q", got)
	}
	if got := Parse("xyz").String(); got != "UNRECOGNIZED" {
		t.Fatalf("got %q", got)
	}
}
