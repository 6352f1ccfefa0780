package role

import "testing"

func TestAtLeast(t *testing.T) {
	ordered := []Role{Viewer, Member, Admin, Owner}

	for i, r := range ordered {
		for j, min := range ordered {
			want := i >= j
			if got := r.AtLeast(min); got != want {
				t.Errorf("%s.AtLeast(%s) = %v, want %v", r, min, got, want)
			}
		}
	}
}

func TestParse(t *testing.T) {
	r, err := Parse("ADMIN")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !r.Equal(Admin) {
		t.Fatalf("expected ADMIN, got %s", r)
	}

	if _, err := Parse("SUPERUSER"); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}
