package importer

import (
	"flag"
	"testing"

	"github.com/urfave/cli"
)

func testContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range RegisterFlags(nil, 500) {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestNewSettings_Defaults(t *testing.T) {
	s, err := NewSettings(testContext(t, "-source-name", "Test Source"))
	if err != nil {
		t.Fatalf("NewSettings() error = %v", err)
	}
	if s.WindowSize != 1000 {
		t.Errorf("window size = %d, want 1000", s.WindowSize)
	}
	if s.MaxFiles != 500 {
		t.Errorf("max files = %d, want 500", s.MaxFiles)
	}
	if s.NegativeSize != NegativeSizeReject {
		t.Errorf("negative size policy = %v, want reject", s.NegativeSize)
	}
}

func TestNewSettings_EmptySourceName(t *testing.T) {
	if _, err := NewSettings(testContext(t)); err == nil {
		t.Error("NewSettings() expected error for empty source name")
	}
}

func TestNewSettings_ConflictingNegativeSizeFlags(t *testing.T) {
	ctx := testContext(t, "-source-name", "x", "-negative-to-zero", "-force-import-negative")
	if _, err := NewSettings(ctx); err == nil {
		t.Error("NewSettings() expected error for conflicting flags")
	}
}

func TestNewSettings_NegativeSizeModes(t *testing.T) {
	s, err := NewSettings(testContext(t, "-source-name", "x", "-negative-to-zero"))
	if err != nil {
		t.Fatal(err)
	}
	if s.NegativeSize != NegativeSizeZero {
		t.Errorf("policy = %v, want clamp-to-zero", s.NegativeSize)
	}

	s, err = NewSettings(testContext(t, "-source-name", "x", "-force-import-negative"))
	if err != nil {
		t.Fatal(err)
	}
	if s.NegativeSize != NegativeSizeForce {
		t.Errorf("policy = %v, want force", s.NegativeSize)
	}
}

func TestNewSettings_InvalidWindowSize(t *testing.T) {
	ctx := testContext(t, "-source-name", "x", "-window-size", "0")
	if _, err := NewSettings(ctx); err == nil {
		t.Error("NewSettings() expected error for zero window size")
	}
}
