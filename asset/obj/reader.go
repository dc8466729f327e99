// Package obj reads Wavefront OBJ model files and imports them as meshes.
package obj

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/asset/token"
)

type Kind int

const (
	Ignored Kind = iota
	Vertex
	TexCoord
	Normal
	Face
	MaterialLib
	UseMaterial
	Object
)

var kindNames = [...]string{"ignored", "vertex", "texcoord", "normal", "face", "material_lib", "use_material", "object"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Layout tells which attribute indices every corner of a face carries.
// The position index is always present.
type Layout uint8

const (
	LayoutP   Layout = 0
	LayoutPT  Layout = 1
	LayoutPN  Layout = 2
	LayoutPTN Layout = LayoutPT | LayoutPN
)

func (l Layout) HasTexCoord() bool { return l&LayoutPT != 0 }
func (l Layout) HasNormal() bool   { return l&LayoutPN != 0 }

func (l Layout) String() string {
	switch l {
	case LayoutP:
		return "p"
	case LayoutPT:
		return "p/t"
	case LayoutPN:
		return "p//n"
	case LayoutPTN:
		return "p/t/n"
	}
	return "layout(" + strconv.Itoa(int(l)) + ")"
}

// Corner holds 1-based attribute indices as written in the file; 0 means
// absent and negative values are relative to the end of the attribute list.
type Corner struct {
	P, T, N int
}

type Record struct {
	Kind Kind
	Line int

	// vertex, texcoord (two used) and normal
	Values [3]float32

	Corners []Corner
	Layout  Layout

	// material name, object name, or the directive of an ignored line
	Name string
	// material library paths
	Paths []string
}

// directives ignored without a warning
var silentDirectives = map[string]bool{
	"s": true,
	"l": true,
}

// ParseLine turns one line of text into a record. Blank and comment-only lines
// give an Ignored record with no name. Errors are format errors.
func ParseLine(text string, num int) (Record, error) {
	tokens, err := token.Lex(text)
	if err != nil {
		return Record{Kind: Ignored, Line: num}, err
	}
	return parseLine(&token.Line{Num: num, Text: text, Tokens: tokens})
}

func parseFloats(args []token.Token, dst []float32) error {
	for i := range dst {
		f, err := args[i].Float()
		if err != nil {
			return err
		}
		dst[i] = f
	}
	return nil
}

func parseLine(line *token.Line) (Record, error) {
	rec := Record{Kind: Ignored, Line: line.Num}
	directive := line.Directive()
	args := line.Args()

	switch directive {
	case "":
		return rec, nil
	case "v", "vn":
		if len(args) != 3 {
			return rec, errors.Errorf("%s expects 3 values, got %d", directive, len(args))
		}
		if err := parseFloats(args, rec.Values[:]); err != nil {
			return rec, errors.Wrapf(err, "%s", directive)
		}
		if directive == "v" {
			rec.Kind = Vertex
		} else {
			rec.Kind = Normal
		}
	case "vt":
		switch len(args) {
		case 2:
			if err := parseFloats(args, rec.Values[:2]); err != nil {
				return rec, errors.Wrap(err, "vt")
			}
		case 3:
			if err := parseFloats(args, rec.Values[:3]); err != nil {
				return rec, errors.Wrap(err, "vt")
			}
			if rec.Values[2] != 0 {
				return Record{Kind: Ignored, Line: line.Num}, errors.Errorf("vt third coordinate must be 0, got %v", rec.Values[2])
			}
		default:
			return rec, errors.Errorf("vt expects 2 values, got %d", len(args))
		}
		rec.Kind = TexCoord
	case "f":
		if len(args) < 3 {
			return rec, errors.Errorf("face needs at least 3 corners, got %d", len(args))
		}
		rec.Corners = make([]Corner, len(args))
		for i := range args {
			c, layout, err := parseCorner(args[i])
			if err != nil {
				return Record{Kind: Ignored, Line: line.Num}, errors.Wrapf(err, "corner %d", i+1)
			}
			if i == 0 {
				rec.Layout = layout
			} else if layout != rec.Layout {
				return Record{Kind: Ignored, Line: line.Num}, errors.Errorf("corner %d is %v, face started as %v", i+1, layout, rec.Layout)
			}
			rec.Corners[i] = c
		}
		rec.Kind = Face
	case "mtllib":
		if len(args) == 0 {
			return rec, errors.New("mtllib expects a path")
		}
		for _, a := range args {
			rec.Paths = append(rec.Paths, a.Text)
		}
		rec.Kind = MaterialLib
	case "usemtl":
		if len(args) != 1 {
			return rec, errors.Errorf("usemtl expects a single name, got %d values", len(args))
		}
		rec.Name = args[0].Text
		rec.Kind = UseMaterial
	case "o", "g":
		names := make([]string, len(args))
		for i := range args {
			names[i] = args[i].Text
		}
		rec.Name = strings.Join(names, " ")
		rec.Kind = Object
	default:
		rec.Name = directive
	}
	return rec, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("bad index %q", s)
	}
	if i == 0 {
		return 0, errors.New("index 0 is invalid")
	}
	return i, nil
}

func parseCorner(t token.Token) (c Corner, layout Layout, err error) {
	switch t.Type {
	case token.TOKEN_NUMBER:
		c.P, err = parseIndex(t.Text)
		return c, LayoutP, err
	case token.TOKEN_CORNER:
	default:
		return c, 0, errors.Errorf("malformed corner %q", t.Text)
	}

	parts := strings.Split(t.Text, "/")
	if c.P, err = parseIndex(parts[0]); err != nil {
		return
	}
	if parts[1] != "" {
		if c.T, err = parseIndex(parts[1]); err != nil {
			return
		}
		layout |= LayoutPT
	} else if len(parts) == 2 {
		return c, 0, errors.Errorf("corner %q has an empty texture index", t.Text)
	}
	if len(parts) == 3 {
		if c.N, err = parseIndex(parts[2]); err != nil {
			return
		}
		layout |= LayoutPN
	}
	return c, layout, nil
}

// Reader streams records of an OBJ file. Malformed lines are recorded as
// format errors and skipped.
type Reader struct {
	s     *token.Scanner
	file  string
	diags *diag.List
	rec   Record
}

func NewReader(r io.Reader, file string, diags *diag.List) *Reader {
	return &Reader{s: token.NewScanner(r), file: file, diags: diags}
}

func (r *Reader) Next() bool {
	for r.s.Scan() {
		line := r.s.Line()
		if err := r.s.LexErr(); err != nil {
			r.diags.Addf(diag.FormatError, r.file, line.Num, "%v", err)
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			r.diags.Addf(diag.FormatError, r.file, line.Num, "%v", err)
			continue
		}
		if rec.Kind == Ignored && !silentDirectives[rec.Name] {
			r.diags.Addf(diag.Warning, r.file, line.Num, "unsupported directive %q ignored", rec.Name)
		}
		r.rec = rec
		return true
	}
	return false
}

func (r *Reader) Record() *Record { return &r.rec }

func (r *Reader) Err() error {
	if err := r.s.Err(); err != nil {
		return errors.Wrapf(err, "Failed to read %q", r.file)
	}
	return nil
}

// ReadRecords reads every well formed record of r.
func ReadRecords(r io.Reader, file string, diags *diag.List) ([]Record, error) {
	var records []Record
	rd := NewReader(r, file, diags)
	for rd.Next() {
		records = append(records, *rd.Record())
	}
	return records, rd.Err()
}
