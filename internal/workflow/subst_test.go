package workflow

import "testing"

func strptr(s string) *string { return &s }

func TestSubstituteParams(t *testing.T) {
	row := Row{
		"account": strptr("ACC-1001"),
		"amount":  strptr("250.00"),
		"memo":    nil,
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"single placeholder", "Account: ${data.account}", "Account: ACC-1001"},
		{"multiple distinct", "${data.account} pays ${data.amount}", "ACC-1001 pays 250.00"},
		{"repeated placeholder", "${data.account}/${data.account}", "ACC-1001/ACC-1001"},
		{"null value renders null literal", "memo=${data.memo}", "memo=null"},
		{"missing key left verbatim", "ref ${data.invoice}", "ref ${data.invoice}"},
		{"mixed present and missing", "${data.account} ${data.invoice}", "ACC-1001 ${data.invoice}"},
		{"no placeholders", "plain text", "plain text"},
		{"control characters pass through", "${data.account}\x1b[2J", "ACC-1001\x1b[2J"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SubstituteParams(tt.template, row); got != tt.want {
				t.Errorf("SubstituteParams = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubstituteParams_IdempotentOnUnresolved(t *testing.T) {
	row := Row{"present": strptr("X")}
	template := "${data.present} and ${data.absent}"

	once := SubstituteParams(template, row)
	twice := SubstituteParams(once, row)
	if once != twice {
		t.Errorf("second pass changed result: %q -> %q", once, twice)
	}

	// A richer row resolves what the first pass could not.
	richer := Row{"present": strptr("X"), "absent": strptr("Y")}
	if got := SubstituteParams(once, richer); got != "X and Y" {
		t.Errorf("richer row = %q, want %q", got, "X and Y")
	}
}

func TestSubstituteParams_NilRow(t *testing.T) {
	if got := SubstituteParams("${data.a}", nil); got != "${data.a}" {
		t.Errorf("nil row = %q, want template unchanged", got)
	}
}

func TestParamRefs(t *testing.T) {
	refs := ParamRefs("${data.user} owes ${data.amount} to ${data.user}")
	want := []string{"user", "amount", "user"}
	if len(refs) != len(want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %q, want %q", i, refs[i], want[i])
		}
	}

	if refs := ParamRefs("no placeholders"); refs != nil {
		t.Errorf("refs = %v, want nil", refs)
	}
}
