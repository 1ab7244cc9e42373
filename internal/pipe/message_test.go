package pipe

import (
	"errors"
	"testing"
)

func payload(s string) *string { return &s }

func TestParseReport(t *testing.T) {
	got, err := ParseReport(payload(`"12" "/home/u/my project"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PaneID != 12 || got.Path != "/home/u/my project" {
		t.Fatalf("unexpected report %#v", got)
	}
}

func TestParseReportTrimsTrailingNewline(t *testing.T) {
	got, err := ParseReport(payload("\"3\" \"/tmp\"\n"))
	if err != nil || got.Path != "/tmp" {
		t.Fatalf("unexpected result %#v %v", got, err)
	}
}

func TestParseReportErrors(t *testing.T) {
	cases := []struct {
		payload *string
		want    error
	}{
		{nil, ErrNoPayload},
		{payload(`"1 /no/closing/quote`), ErrUnterminated},
		{payload(`"1"`), ErrTokenCount},
		{payload(`"1" "/a" "/b"`), ErrTokenCount},
		{payload(""), ErrTokenCount},
		{payload(`1 /a`), ErrMalformed},
		{payload(`"1"  "/a"`), ErrMalformed},
		{payload(`"1""/a"`), ErrMalformed},
		{payload(`"x" "/a"`), ErrPaneID},
		{payload(`"-1" "/a"`), ErrPaneID},
		{payload(`"4294967296" "/a"`), ErrPaneID},
		{payload(`"1" ""`), ErrEmptyPath},
	}
	for _, tc := range cases {
		_, err := ParseReport(tc.payload)
		if !errors.Is(err, tc.want) {
			name := "<nil>"
			if tc.payload != nil {
				name = *tc.payload
			}
			t.Fatalf("ParseReport(%q): expected %v, got %v", name, tc.want, err)
		}
	}
}

func TestFormatReportParses(t *testing.T) {
	got, err := ParseReport(payload(FormatReport(4294967295, "/srv/a b")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PaneID != 4294967295 || got.Path != "/srv/a b" {
		t.Fatalf("unexpected report %#v", got)
	}
}
