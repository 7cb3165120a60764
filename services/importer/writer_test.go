package importer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/webtor-io/torrent-loader/models"
)

func TestEncodeFilesCSV(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	buf := encodeFilesCSV([]*models.TorrentFile{
		{
			InfoHash:  bytes.Repeat([]byte{0xab}, 20),
			Index:     0,
			Path:      `weird,"path"`,
			Size:      42,
			CreatedAt: at,
			UpdatedAt: at,
		},
	})
	want := `\xabababababababababababababababababababab,0,"weird,""path""",42,2024-03-10T12:00:00Z,2024-03-10T12:00:00Z` + "\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}
}

func TestEncodeFilesCSVEmptyPathStaysEmptyString(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	buf := encodeFilesCSV([]*models.TorrentFile{
		{
			InfoHash:  []byte{0x01},
			Index:     0,
			Path:      "",
			Size:      1,
			CreatedAt: at,
			UpdatedAt: at,
		},
	})
	// An unquoted empty field would read back as NULL under COPY CSV.
	want := `\x01,0,"",1,2024-03-10T12:00:00Z,2024-03-10T12:00:00Z` + "\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}
}

func TestEncodeSourcesCSV(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	buf := encodeSourcesCSV([]*models.TorrentsTorrentSource{
		{
			Source:      "test source",
			InfoHash:    []byte{0x01, 0x02},
			PublishedAt: at,
			CreatedAt:   at,
			UpdatedAt:   at,
		},
	})
	if !strings.HasPrefix(buf.String(), `test source,\x0102,`) {
		t.Errorf("csv = %q", buf.String())
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 1 {
		t.Errorf("got %d lines, want 1", lines)
	}
}

func TestByteaHexRoundTripsThroughPostgresSyntax(t *testing.T) {
	got := byteaHex([]byte{0xde, 0xad, 0xbe, 0xef})
	if got != `\xdeadbeef` {
		t.Errorf("byteaHex() = %q", got)
	}
}
