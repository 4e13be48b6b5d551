package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"episode 1", "episode 1"},
		{"a/b\\c:d", "a-b-c-d"},
		{"what?.mp4", "what.mp4"},
		{"  <talk>  ", "talk"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
