package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms atrium Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: bed-double -> bed_double
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpWallRef wraps a wall id so it can be returned from `wall` and
// consumed by `opening`.
type sexpWallRef struct {
	id string
}

func (w *sexpWallRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(wallref %q)", w.id)
}
func (w *sexpWallRef) Type() *zygo.RegisteredType { return nil }

// sexpElemRef wraps any other created element's id (opening, furniture,
// label) for error messages and composition.
type sexpElemRef struct {
	kind string
	id   string
}

func (e *sexpElemRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%sref %q)", e.kind, e.id)
}
func (e *sexpElemRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at the end with no value, treat as a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_door) and plain strings ("door").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toWallRef extracts a wall id from a sexpWallRef.
func toWallRef(s zygo.Sexp) (string, error) {
	if ref, ok := s.(*sexpWallRef); ok {
		return ref.id, nil
	}
	return "", fmt.Errorf("expected wall reference, got %T (%s)", s, s.SexpString(nil))
}

// positionalFloats extracts the first n positional args as floats.
func positionalFloats(pa kwArgs, n int, form string) ([]float64, error) {
	if len(pa.positional) < n {
		return nil, fmt.Errorf("%s requires %d positional numbers, got %d", form, n, len(pa.positional))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f, err := toFloat64(pa.positional[i])
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", form, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the atrium DSL builtins into a zygomys
// environment. The builtins populate the provided Plan during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *plan.Plan, catalog *plan.Catalog) {

	// -----------------------------------------------------------------------
	// (wall x1 y1 x2 y2 :thickness 0.2 :height 2.5 :virtual true)
	// -----------------------------------------------------------------------
	env.AddFunction("wall", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		coords, err := positionalFloats(pa, 4, "wall")
		if err != nil {
			return zygo.SexpNull, err
		}
		w := plan.NewWall(geom.Pt(coords[0], coords[1]), geom.Pt(coords[2], coords[3]))

		if v, ok := pa.kw["thickness"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: thickness: %w", err)
			}
			w.Thickness = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: height: %w", err)
			}
			w.Height = f
		}
		if v, ok := pa.kw["virtual"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: virtual: %w", err)
			}
			w.Virtual = b
		}
		if v, ok := pa.kw["material"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: material: %w", err)
			}
			w.MaterialID = s
		}

		added, err := p.AddWall(w)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: %w", err)
		}
		return &sexpWallRef{id: added.ID}, nil
	})

	// -----------------------------------------------------------------------
	// (opening wref :kind :door :at 0.5 :width 0.9 :height 2.0 :sill 0.9
	//          :hinge :left :swing :in)
	// -----------------------------------------------------------------------
	env.AddFunction("opening", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("opening requires a wall reference as first argument")
		}
		wallID, err := toWallRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening: wall: %w", err)
		}

		obj := plan.WallObject{
			WallID:   wallID,
			Position: 0.5,
			Width:    0.9,
			Height:   2.0,
		}
		if v, ok := pa.kw["kind"]; ok {
			k, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: kind: %w", err)
			}
			switch k {
			case "door":
				obj.Kind = plan.ObjectDoor
			case "window":
				obj.Kind = plan.ObjectWindow
			default:
				return zygo.SexpNull, fmt.Errorf("opening: kind %q, expected door or window", k)
			}
		}
		if v, ok := pa.kw["at"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: at: %w", err)
			}
			obj.Position = f
		}
		if v, ok := pa.kw["width"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: width: %w", err)
			}
			obj.Width = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: height: %w", err)
			}
			obj.Height = f
		}
		if v, ok := pa.kw["sill"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: sill: %w", err)
			}
			obj.Offset = f
		}
		if v, ok := pa.kw["hinge"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: hinge: %w", err)
			}
			if s == "right" {
				obj.Hinge = plan.HingeRight
			}
		}
		if v, ok := pa.kw["swing"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: swing: %w", err)
			}
			if s == "out" {
				obj.Swing = plan.SwingOut
			}
		}

		added, err := p.AddObject(obj)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening: %w", err)
		}
		return &sexpElemRef{kind: "opening", id: added.ID}, nil
	})

	// -----------------------------------------------------------------------
	// (furniture "bed-double" x y :rotation 90)
	// -----------------------------------------------------------------------
	env.AddFunction("furniture", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 3 {
			return zygo.SexpNull, fmt.Errorf("furniture requires a template name, x, and y")
		}
		// The kebab-case transform also rewrites hyphens inside bare
		// template names typed without quotes; accept both spellings.
		tplName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("furniture: template: %w", err)
		}
		tpl, ok := catalog.Resolve(tplName)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("furniture: unknown template %q", tplName)
		}
		x, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("furniture: x: %w", err)
		}
		y, err := toFloat64(pa.positional[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("furniture: y: %w", err)
		}

		f := plan.Furniture{
			TemplateID: tpl.ID,
			Position:   geom.Pt(x, y),
			Width:      tpl.Width,
			Depth:      tpl.Depth,
		}
		if v, ok := pa.kw["rotation"]; ok {
			r, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("furniture: rotation: %w", err)
			}
			f.Rotation = r
		}

		added := p.AddFurniture(f)
		return &sexpElemRef{kind: "furniture", id: added.ID}, nil
	})

	// -----------------------------------------------------------------------
	// (label "Kitchen" x y)
	// -----------------------------------------------------------------------
	env.AddFunction("label", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 3 {
			return zygo.SexpNull, fmt.Errorf("label requires text, x, and y")
		}
		text, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("label: text: %w", err)
		}
		x, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("label: x: %w", err)
		}
		y, err := toFloat64(pa.positional[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("label: y: %w", err)
		}

		added := p.AddLabel(plan.RoomLabel{Text: text, Position: geom.Pt(x, y)})
		return &sexpElemRef{kind: "label", id: added.ID}, nil
	})
}
