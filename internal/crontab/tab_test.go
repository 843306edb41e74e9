package crontab

import (
	"slices"
	"testing"
)

const tag = "# [fancyjob]"

func TestParseRender_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "single line", text: "0 10 * * * /bin/true\n", want: []string{"0 10 * * * /bin/true"}},
		{
			name: "no trailing newline",
			text: "0 10 * * * /bin/true",
			want: []string{"0 10 * * * /bin/true"},
		},
		{
			name: "blank interior line survives",
			text: "a\n\nb\n",
			want: []string{"a", "", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Parse(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Parse(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRender_TrailingNewline(t *testing.T) {
	t.Parallel()

	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}
	if got := Render([]string{"a", "b"}); got != "a\nb\n" {
		t.Errorf("Render() = %q", got)
	}
}

func TestPartition(t *testing.T) {
	t.Parallel()

	lines := []string{
		"MAILTO=ops@example.com",
		"1 0 * * * /usr/local/bin/fancyjob --schedule # fixed anchor",
		"12 7 * * * cd /work && /usr/local/bin/fancyjob >> cron.log 2>&1 " + tag,
		"# a comment somebody left here",
		"5 23 * * * cd /work && /usr/local/bin/fancyjob >> cron.log 2>&1 " + tag,
		"0 10 * * * /usr/bin/backup",
	}

	kept, owned := Partition(lines, tag)

	wantKept := []string{
		"MAILTO=ops@example.com",
		"1 0 * * * /usr/local/bin/fancyjob --schedule # fixed anchor",
		"# a comment somebody left here",
		"0 10 * * * /usr/bin/backup",
	}
	if !slices.Equal(kept, wantKept) {
		t.Errorf("kept = %#v, want %#v", kept, wantKept)
	}
	if len(owned) != 2 {
		t.Errorf("owned = %#v, want 2 entries", owned)
	}
}

func TestPartition_NoOwnedLines(t *testing.T) {
	t.Parallel()

	lines := []string{"0 10 * * * /usr/bin/backup"}
	kept, owned := Partition(lines, tag)

	if !slices.Equal(kept, lines) {
		t.Errorf("kept = %#v", kept)
	}
	if owned != nil {
		t.Errorf("owned = %#v, want nil", owned)
	}
}
