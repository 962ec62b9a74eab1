package summarize

import "testing"

func TestScrub(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clean bullets pass through",
			in:   "- changed the parser\n- fixed a typo",
			want: "- changed the parser\n- fixed a typo",
		},
		{
			name: "headers are dropped",
			in:   "## Summary\n- real content",
			want: "- real content",
		},
		{
			name: "timestamp lines are dropped",
			in:   "2026-03-14 15:09 session\n- real content\n[14:30:05] done",
			want: "- real content",
		},
		{
			name: "alternate bullet glyphs normalize",
			in:   "* starred\n• dotted\n– dashed",
			want: "- starred\n- dotted\n- dashed",
		},
		{
			name: "preamble label line is dropped",
			in:   "Here is the summary:\n- actual change",
			want: "- actual change",
		},
		{
			name: "continuation lines indent under their bullet",
			in:   "- a long change description\nthat wraps onto a second line",
			want: "- a long change description\n  that wraps onto a second line",
		},
		{
			name: "whitespace only becomes empty",
			in:   "   \n\t\n",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scrub(tc.in); got != tc.want {
				t.Errorf("scrub(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
