package domain

import (
	"encoding/json"
	"testing"
)

// FuzzParseApplicationID feeds path segments as they arrive from
// /applications/{id}. Anything accepted must be canonical after one pass
// and survive the JSON encoding used in responses and audit payloads.
func FuzzParseApplicationID(f *testing.F) {
	for _, seed := range []string{
		"",
		"   ",
		"0b8d5f3e-7c1a-4e2b-9f6d-2a4c8e1b3d5f",
		"{0b8d5f3e-7c1a-4e2b-9f6d-2a4c8e1b3d5f}",
		"urn:uuid:0b8d5f3e-7c1a-4e2b-9f6d-2a4c8e1b3d5f",
		"00000000-0000-0000-0000-000000000000",
		"../notifications",
		"\x00\xff",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseApplicationID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatalf("nil id accepted from %q", input)
		}
		again, err := ParseApplicationID(id.String())
		if err != nil || again != id {
			t.Fatalf("canonical form %q did not re-parse: %v", id.String(), err)
		}
		raw, err := json.Marshal(id)
		if err != nil {
			t.Fatal(err)
		}
		var decoded ApplicationID
		if err := json.Unmarshal(raw, &decoded); err != nil || decoded != id {
			t.Fatalf("json round trip of %s failed: %v", raw, err)
		}
	})
}

// FuzzIDKindsAgree holds every typed id to the same acceptance rule.
func FuzzIDKindsAgree(f *testing.F) {
	f.Add("7f3e2d1c-0b9a-4876-a543-210fedcba987")
	f.Add("")
	f.Add("mfi-brac")

	f.Fuzz(func(t *testing.T, input string) {
		_, errUser := ParseUserID(input)
		_, errMFI := ParseMFIID(input)
		_, errProduct := ParseLoanProductID(input)
		_, errApp := ParseApplicationID(input)
		_, errNote := ParseNotificationID(input)

		ok := errUser == nil
		for _, err := range []error{errMFI, errProduct, errApp, errNote} {
			if (err == nil) != ok {
				t.Fatalf("id kinds disagree on %q", input)
			}
		}
	})
}
