package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nepcscore/services/live-scoring/pkg/models"
)

func TestParsePress(t *testing.T) {
	tests := []struct {
		token   string
		want    models.ScoringEvent
		wantErr bool
	}{
		{token: "runs:p1:4", want: models.ScoringEvent{Type: models.EventRuns, PlayerID: "p1", Runs: 4}},
		{token: "wicket:p2", want: models.ScoringEvent{Type: models.EventWicket, PlayerID: "p2"}},
		{token: "extras:+1", want: models.ScoringEvent{Type: models.EventExtras, Delta: 1}},
		{token: "extras:-1", want: models.ScoringEvent{Type: models.EventExtras, Delta: -1}},
		{token: "batter:p3:Gulsan Jha", want: models.ScoringEvent{Type: models.EventBatterAdded, PlayerID: "p3", Name: "Gulsan Jha"}},
		{token: "bowler:b2", want: models.ScoringEvent{Type: models.EventBowlerChanged, PlayerID: "b2"}},
		{token: "runs:p1", wantErr: true},
		{token: "runs:p1:four", wantErr: true},
		{token: "wicket", wantErr: true},
		{token: "extras:lots", wantErr: true},
		{token: "noball:p1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParsePress(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Type != tt.want.Type || got.PlayerID != tt.want.PlayerID || got.Name != tt.want.Name ||
				got.Runs != tt.want.Runs || got.Delta != tt.want.Delta {
				t.Errorf("ParsePress() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTallyCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"tally", "runs:p1:4", "runs:p1:1", "wicket:p2", "runs:p1:6", "extras:+1"})

	if err := root.Execute(); err != nil {
		t.Fatalf("tally failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"wicket:p2: select_next_batter", "Score 11/1", "Overs 0.4", "Extras 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestTallyCommand_RejectsBadPress(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"tally", "runs:p1:5"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for 5 runs")
	}
}
