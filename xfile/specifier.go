package xfile

import (
	"fmt"
	"strings"
)

// TableKind selects between an archive (the data itself) and a script (an
// index of per-key locations).
type TableKind int

const (
	Archive TableKind = iota
	Script
	// ArchiveScript is the write-side "ark,scp" form: the archive is written
	// and a script indexing it is emitted in the same pass.
	ArchiveScript
)

// SpecifierOptions are the comma-separated flags accepted between the table
// kind and the colon, e.g. "ark,t,f:...".
type SpecifierOptions struct {
	Text       bool // t: write text instead of binary ("b" is the default)
	Flush      bool // f: flush after every write ("nf" is the default)
	Permissive bool // p: skip unreadable entries / missing script targets

	// Advisory read hints, accepted for grammar compatibility. Reads are
	// index-backed here, so they change nothing.
	Once         bool // o
	Sorted       bool // s
	CalledSorted bool // cs
}

// RSpecifier is a parsed read-side table specifier.
type RSpecifier struct {
	Kind     TableKind
	Location string
	Opts     SpecifierOptions
}

// WSpecifier is a parsed write-side table specifier.
type WSpecifier struct {
	Kind            TableKind
	ArchiveLocation string
	ScriptLocation  string
	Opts            SpecifierOptions
}

// ParseRSpecifier parses e.g. "ark:foo.ark", "scp,p:foo.scp", "ark,s,cs:-".
func ParseRSpecifier(s string) (RSpecifier, error) {
	kinds, loc, opts, err := parseSpecifier(s)
	if err != nil {
		return RSpecifier{}, err
	}
	var rs RSpecifier
	switch {
	case len(kinds) == 1 && kinds[0] == "ark":
		rs.Kind = Archive
	case len(kinds) == 1 && kinds[0] == "scp":
		rs.Kind = Script
	default:
		return RSpecifier{}, fmt.Errorf("rspecifier %q: want exactly one of ark or scp", s)
	}
	if loc == "" {
		return RSpecifier{}, fmt.Errorf("rspecifier %q: empty location", s)
	}
	rs.Location = loc
	rs.Opts = opts
	return rs, nil
}

// ParseWSpecifier parses e.g. "ark:foo.ark", "ark,t:-",
// "ark,scp:foo.ark,foo.scp".
func ParseWSpecifier(s string) (WSpecifier, error) {
	kinds, loc, opts, err := parseSpecifier(s)
	if err != nil {
		return WSpecifier{}, err
	}
	var ws WSpecifier
	ws.Opts = opts
	switch {
	case len(kinds) == 1 && kinds[0] == "ark":
		ws.Kind = Archive
		ws.ArchiveLocation = loc
	case len(kinds) == 1 && kinds[0] == "scp":
		ws.Kind = Script
		ws.ScriptLocation = loc
	case len(kinds) == 2 && kinds[0] == "ark" && kinds[1] == "scp":
		ws.Kind = ArchiveScript
		arkLoc, scpLoc, ok := strings.Cut(loc, ",")
		if !ok || arkLoc == "" || scpLoc == "" {
			return WSpecifier{}, fmt.Errorf(
				"wspecifier %q: ark,scp needs \"archive,script\" locations", s)
		}
		ws.ArchiveLocation = arkLoc
		ws.ScriptLocation = scpLoc
	default:
		return WSpecifier{}, fmt.Errorf("wspecifier %q: want ark, scp or ark,scp", s)
	}
	if ws.Kind != ArchiveScript && loc == "" {
		return WSpecifier{}, fmt.Errorf("wspecifier %q: empty location", s)
	}
	return ws, nil
}

func parseSpecifier(s string) (kinds []string, location string, opts SpecifierOptions, err error) {
	prefix, loc, ok := strings.Cut(s, ":")
	if !ok {
		return nil, "", opts, fmt.Errorf("table specifier %q: missing ':'", s)
	}
	for _, tok := range strings.Split(prefix, ",") {
		switch tok {
		case "ark", "scp":
			kinds = append(kinds, tok)
		case "t":
			opts.Text = true
		case "b":
			opts.Text = false
		case "f":
			opts.Flush = true
		case "nf":
			opts.Flush = false
		case "p":
			opts.Permissive = true
		case "np":
			opts.Permissive = false
		case "o":
			opts.Once = true
		case "no":
			opts.Once = false
		case "s":
			opts.Sorted = true
		case "ns":
			opts.Sorted = false
		case "cs":
			opts.CalledSorted = true
		case "ncs":
			opts.CalledSorted = false
		case "":
			return nil, "", opts, fmt.Errorf("table specifier %q: empty option", s)
		default:
			return nil, "", opts, fmt.Errorf("table specifier %q: unknown option %q", s, tok)
		}
	}
	if len(kinds) == 0 {
		return nil, "", opts, fmt.Errorf("table specifier %q: missing ark or scp", s)
	}
	return kinds, loc, opts, nil
}
