package importer

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var (
	SourceNameFlag          = "source-name"
	WindowSizeFlag          = "window-size"
	AddFilesFlag            = "add-files"
	AddFilesLimitFlag       = "add-files-limit"
	ImportPaddingFlag       = "import-padding"
	InsertContentFlag       = "insert-content"
	NegativeToZeroFlag      = "negative-to-zero"
	ForceImportNegativeFlag = "force-import-negative"
	ImportEmptyFilesFlag    = "import-empty-files"
	SingleTransactionFlag   = "single-transaction"
	UseCopyFlag             = "use-copy"
)

func RegisterFlags(f []cli.Flag, addFilesLimit int) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   SourceNameFlag,
			Usage:  "source name as it will appear in the destination",
			EnvVar: "SOURCE_NAME",
		},
		cli.IntFlag{
			Name:   WindowSizeFlag,
			Usage:  "number of records processed per window",
			Value:  1000,
			EnvVar: "WINDOW_SIZE",
		},
		cli.BoolFlag{
			Name:   AddFilesFlag,
			Usage:  "import per-file data",
			EnvVar: "ADD_FILES",
		},
		cli.IntFlag{
			Name:   AddFilesLimitFlag,
			Usage:  "limit the number of files imported per torrent",
			Value:  addFilesLimit,
			EnvVar: "ADD_FILES_LIMIT",
		},
		cli.BoolFlag{
			Name:   ImportPaddingFlag,
			Usage:  "treat padding files as normal files (not recommended)",
			EnvVar: "IMPORT_PADDING",
		},
		cli.BoolFlag{
			Name:   InsertContentFlag,
			Usage:  "insert content placeholder rows so hashes are searchable before reprocessing",
			EnvVar: "INSERT_CONTENT",
		},
		cli.BoolFlag{
			Name:   NegativeToZeroFlag,
			Usage:  "clamp negative torrent sizes to zero instead of skipping the record",
			EnvVar: "NEGATIVE_TO_ZERO",
		},
		cli.BoolFlag{
			Name:   ForceImportNegativeFlag,
			Usage:  "import torrents with a negative size unmodified",
			EnvVar: "FORCE_IMPORT_NEGATIVE",
		},
		cli.BoolFlag{
			Name:   ImportEmptyFilesFlag,
			Usage:  "import file rows even when every path decoded to an empty string",
			EnvVar: "IMPORT_EMPTY_FILES",
		},
		cli.BoolFlag{
			Name:   SingleTransactionFlag,
			Usage:  "run the whole load in one transaction and roll everything back on fatal error",
			EnvVar: "SINGLE_TRANSACTION",
		},
		cli.BoolFlag{
			Name:   UseCopyFlag,
			Usage:  "use the bulk-copy protocol for file and attribution rows",
			EnvVar: "USE_COPY",
		},
	)
}

// NegativeSizePolicy decides what happens to a record whose declared total
// size is negative. Exactly one mode is active per run.
type NegativeSizePolicy int

const (
	NegativeSizeReject NegativeSizePolicy = iota
	NegativeSizeZero
	NegativeSizeForce
)

// Settings is the validated configuration of one load run.
type Settings struct {
	SourceName        string
	WindowSize        int
	ImportFiles       bool
	MaxFiles          int
	KeepPadding       bool
	InsertContent     bool
	ImportEmptyFiles  bool
	SingleTransaction bool
	UseCopy           bool
	NegativeSize      NegativeSizePolicy
}

// NewSettings validates flags before any I/O happens. Conflicting
// negative-size flags and an empty source name are configuration errors.
func NewSettings(c *cli.Context) (*Settings, error) {
	if c.String(SourceNameFlag) == "" {
		return nil, errors.Errorf("--%s must not be empty", SourceNameFlag)
	}
	if c.Bool(NegativeToZeroFlag) && c.Bool(ForceImportNegativeFlag) {
		return nil, errors.Errorf("--%s and --%s may not be used together", NegativeToZeroFlag, ForceImportNegativeFlag)
	}
	if c.Int(WindowSizeFlag) < 1 {
		return nil, errors.Errorf("--%s must be positive", WindowSizeFlag)
	}
	if c.Int(AddFilesLimitFlag) < 1 {
		return nil, errors.Errorf("--%s must be positive", AddFilesLimitFlag)
	}
	policy := NegativeSizeReject
	if c.Bool(NegativeToZeroFlag) {
		policy = NegativeSizeZero
	} else if c.Bool(ForceImportNegativeFlag) {
		policy = NegativeSizeForce
	}
	return &Settings{
		SourceName:        c.String(SourceNameFlag),
		WindowSize:        c.Int(WindowSizeFlag),
		ImportFiles:       c.Bool(AddFilesFlag),
		MaxFiles:          c.Int(AddFilesLimitFlag),
		KeepPadding:       c.Bool(ImportPaddingFlag),
		InsertContent:     c.Bool(InsertContentFlag),
		ImportEmptyFiles:  c.Bool(ImportEmptyFilesFlag),
		SingleTransaction: c.Bool(SingleTransactionFlag),
		UseCopy:           c.Bool(UseCopyFlag),
		NegativeSize:      policy,
	}, nil
}
