package mcraw

import "testing"

func TestRenderOptions_Has(t *testing.T) {
	var o RenderOptions
	if o.Has(RenderOptDraft) {
		t.Fatalf("zero-value RenderOptions should not have RenderOptDraft set")
	}
	o |= RenderOptDraft
	if !o.Has(RenderOptDraft) {
		t.Fatalf("expected RenderOptDraft to be set")
	}
}

func TestRenderOptions_String(t *testing.T) {
	cases := []struct {
		opts RenderOptions
		want string
	}{
		{0, "none"},
		{RenderOptDraft, "draft"},
	}
	for _, tc := range cases {
		if got := tc.opts.String(); got != tc.want {
			t.Errorf("RenderOptions(%d).String() = %q, want %q", tc.opts, got, tc.want)
		}
	}
}
