package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dvkit/transfer/internal/domain"
)

// NullHandling selects what a null operand becomes inside math,
// comparison, and negation. Bare null field reads always render empty.
type NullHandling string

const (
	// NullError fails evaluation on a null operand.
	NullError NullHandling = "error"
	// NullEmpty nulls the enclosing operation's result.
	NullEmpty NullHandling = "empty"
	// NullZero substitutes integer zero for the null operand.
	NullZero NullHandling = "zero"
)

// ParseNullHandling recognises the wire names of the null policies.
func ParseNullHandling(s string) (NullHandling, bool) {
	switch NullHandling(strings.ToLower(strings.TrimSpace(s))) {
	case NullError:
		return NullError, true
	case NullEmpty:
		return NullEmpty, true
	case NullZero:
		return NullZero, true
	default:
		return "", false
	}
}

// Template is a parsed format template: literal runs interleaved with
// ${...} expression spans. Source keeps the original text so templates
// round-trip through the spreadsheet format unchanged.
type Template struct {
	Parts  []Part
	Source string
}

// Part is one segment of a template. Expr is nil for literal runs.
type Part struct {
	Literal string
	Expr    Expr
}

// Expr is a node of the template expression tree.
type Expr interface{ exprNode() }

// FieldExpr reads a field path from the record.
type FieldExpr struct {
	Path domain.FieldPath
}

// ConstantExpr is a number or quoted string literal.
type ConstantExpr struct {
	Value domain.Value
}

type MathOp string

const (
	MathAdd MathOp = "+"
	MathSub MathOp = "-"
	MathMul MathOp = "*"
	MathDiv MathOp = "/"
)

// MathExpr is a binary arithmetic operation.
type MathExpr struct {
	Left  Expr
	Op    MathOp
	Right Expr
}

type CompareOp string

const (
	CompareEq  CompareOp = "=="
	CompareNeq CompareOp = "!="
	CompareLt  CompareOp = "<"
	CompareLte CompareOp = "<="
	CompareGt  CompareOp = ">"
	CompareGte CompareOp = ">="
)

// CompareExpr is a binary comparison. Comparisons do not chain.
type CompareExpr struct {
	Left  Expr
	Op    CompareOp
	Right Expr
}

// TernaryExpr is cond ? then : else.
type TernaryExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

// CoalesceExpr yields the first non-null alternative.
type CoalesceExpr struct {
	Exprs []Expr
}

// NegateExpr is unary minus.
type NegateExpr struct {
	Expr Expr
}

// FormattedExpr wraps the top-level expression of a span that carries a
// format spec suffix.
type FormattedExpr struct {
	Expr Expr
	Spec Spec
}

func (FieldExpr) exprNode()     {}
func (ConstantExpr) exprNode()  {}
func (MathExpr) exprNode()      {}
func (CompareExpr) exprNode()   {}
func (TernaryExpr) exprNode()   {}
func (CoalesceExpr) exprNode()  {}
func (NegateExpr) exprNode()    {}
func (FormattedExpr) exprNode() {}

// SpecType is the conversion a format spec requests.
type SpecType string

const (
	SpecAuto     SpecType = ""
	SpecFloat    SpecType = "f"
	SpecInteger  SpecType = "d"
	SpecDate     SpecType = "date"
	SpecDateTime SpecType = "datetime"
	SpecPercent  SpecType = "%"
)

// Spec is a parsed format spec: [,][.prec][f|d|date|datetime|%].
type Spec struct {
	ThousandsSep bool
	Precision    *int
	Type         SpecType
}

func (s Spec) String() string {
	var b strings.Builder
	if s.ThousandsSep {
		b.WriteByte(',')
	}
	if s.Precision != nil {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(*s.Precision))
	}
	b.WriteString(string(s.Type))
	return b.String()
}

func (t *Template) String() string {
	return t.Source
}

// FieldPaths collects every field path the template reads, in first-use
// order without duplicates. Used to build $select and $expand clauses.
func (t *Template) FieldPaths() []domain.FieldPath {
	var paths []domain.FieldPath
	seen := map[string]bool{}
	for _, part := range t.Parts {
		if part.Expr == nil {
			continue
		}
		collectFieldPaths(part.Expr, &paths, seen)
	}
	return paths
}

// BaseFields collects the distinct base fields of every path.
func (t *Template) BaseFields() []string {
	var fields []string
	seen := map[string]bool{}
	for _, path := range t.FieldPaths() {
		base := path.BaseField()
		if !seen[base] {
			seen[base] = true
			fields = append(fields, base)
		}
	}
	return fields
}

func collectFieldPaths(expr Expr, paths *[]domain.FieldPath, seen map[string]bool) {
	switch node := expr.(type) {
	case FieldExpr:
		key := node.Path.String()
		if !seen[key] {
			seen[key] = true
			*paths = append(*paths, node.Path)
		}
	case ConstantExpr:
	case MathExpr:
		collectFieldPaths(node.Left, paths, seen)
		collectFieldPaths(node.Right, paths, seen)
	case CompareExpr:
		collectFieldPaths(node.Left, paths, seen)
		collectFieldPaths(node.Right, paths, seen)
	case TernaryExpr:
		collectFieldPaths(node.Cond, paths, seen)
		collectFieldPaths(node.Then, paths, seen)
		collectFieldPaths(node.Else, paths, seen)
	case CoalesceExpr:
		for _, alt := range node.Exprs {
			collectFieldPaths(alt, paths, seen)
		}
	case NegateExpr:
		collectFieldPaths(node.Expr, paths, seen)
	case FormattedExpr:
		collectFieldPaths(node.Expr, paths, seen)
	default:
		panic(fmt.Sprintf("unknown expression node %T", expr))
	}
}
