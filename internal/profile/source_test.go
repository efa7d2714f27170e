package profile

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestGenerate(t *testing.T) {
	src := Generate(10)
	if src.Len() != 10 {
		t.Fatalf("expected 10 rows, got %d", src.Len())
	}

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		row := src.Next()
		if row.Name == "" || row.Email == "" || row.Pincode == "" {
			t.Errorf("incomplete row: %+v", row)
		}
		if !strings.Contains(row.Email, "@loadtest.local") {
			t.Errorf("unexpected email domain: %s", row.Email)
		}
		if seen[row.Email] {
			t.Errorf("duplicate email: %s", row.Email)
		}
		seen[row.Email] = true
	}
}

func TestSequentialWrapsAround(t *testing.T) {
	rows := []Row{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	src := NewSource(rows, ModeSequential)

	var got []string
	for i := 0; i < 6; i++ {
		got = append(got, src.Next().Name)
	}
	want := "abcabc"
	if strings.Join(got, "") != want {
		t.Errorf("sequential order = %v, want %s", got, want)
	}
}

func TestRandomModeStaysInBounds(t *testing.T) {
	rows := []Row{{Name: "a"}, {Name: "b"}}
	src := NewSource(rows, ModeRandom)
	for i := 0; i < 50; i++ {
		name := src.Next().Name
		if name != "a" && name != "b" {
			t.Fatalf("row from outside the set: %q", name)
		}
	}
}

func TestNextIsSafeForConcurrentUse(t *testing.T) {
	src := Generate(5)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if row := src.Next(); row.Name == "" {
					t.Error("empty row from non-empty source")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestEmptySource(t *testing.T) {
	src := NewSource(nil, ModeSequential)
	if row := src.Next(); row != (Row{}) {
		t.Errorf("empty source returned %+v", row)
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.csv")
	content := "name,email,phone,address,city,state,pincode\n" +
		"Asha Rao,asha@example.com,9876543210,12 MG Road,Bangalore,Karnataka,560001\n" +
		"Ravi Kumar,ravi@example.com,9876500000,4 Park St,Kolkata,West Bengal,700001\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := LoadCSV(path, ModeSequential)
	if err != nil {
		t.Fatal(err)
	}
	if src.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", src.Len())
	}
	first := src.Next()
	if first.Name != "Asha Rao" || first.City != "Bangalore" {
		t.Errorf("unexpected first row: %+v", first)
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.csv")
	if err := os.WriteFile(path, []byte("name,email\nA,a@b.c\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCSV(path, ModeSequential); err == nil {
		t.Error("expected error for missing columns")
	}
}

func TestLoadCSVHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.csv")
	if err := os.WriteFile(path, []byte("name,email,phone,city,state,pincode\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCSV(path, ModeSequential); err == nil {
		t.Error("expected error for data-less file")
	}
}
