package translate

import (
	"fmt"
	"time"

	"github.com/dwoolworth/mgosh/internal/command"
	"github.com/dwoolworth/mgosh/internal/parser/sqlparse"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// FromSelectStmt lowers a fully parsed SELECT statement into a Command. A
// statement with no GROUP BY, no aggregate select items and no column
// arithmetic in WHERE lowers to a Find; otherwise it lowers to an Aggregate
// pipeline following the worked example
// in spec.md §8 (match, then group, then project, then sort).
func FromSelectStmt(stmt *sqlparse.SelectStmt) (*command.Command, error) {
	if stmt.From == "" {
		return nil, fmt.Errorf("SELECT requires a FROM clause")
	}

	filter, err := whereToFilter(stmt.Where)
	if err != nil {
		return nil, err
	}

	var q *command.QueryCommand
	if needsAggregation(stmt) {
		q, err = buildAggregatePipeline(stmt, filter)
	} else {
		q, err = buildFind(stmt, filter)
	}
	if err != nil {
		return nil, err
	}

	if stmt.Explain {
		verbosity, verr := sqlVerbosity(stmt.Verbosity)
		if verr != nil {
			return nil, verr
		}
		q, err = command.NewExplain(q, verbosity)
		if err != nil {
			return nil, err
		}
	}
	return &command.Command{Kind: command.KindQuery, Query: q}, nil
}

func sqlVerbosity(v sqlparse.ExplainVerbosity) (command.ExplainVerbosity, error) {
	switch v {
	case sqlparse.VerbosityQueryPlanner:
		return command.QueryPlanner, nil
	case sqlparse.VerbosityExecutionStats:
		return command.ExecutionStats, nil
	case sqlparse.VerbosityAllPlansExecution:
		return command.AllPlansExecution, nil
	default:
		return 0, fmt.Errorf("unknown explain verbosity %q", v)
	}
}

func needsAggregation(stmt *sqlparse.SelectStmt) bool {
	if len(stmt.GroupBy) > 0 {
		return true
	}
	if hasAggregateItem(stmt) {
		return true
	}
	// WHERE-clause arithmetic over a column (e.g. `price - discount > 100`)
	// needs $expr with an aggregation expression, which only a $match
	// inside a pipeline can evaluate (spec.md §4.3 rule 3).
	if whereHasColumnArithmetic(stmt.Where) {
		return true
	}
	return false
}

func hasAggregateItem(stmt *sqlparse.SelectStmt) bool {
	for _, item := range stmt.Items {
		if item.Kind == sqlparse.ItemAggregate {
			return true
		}
	}
	return false
}

// whereHasColumnArithmetic reports whether any comparison in the WHERE
// clause has an arithmetic operand (+, -, *, /, %) that itself references a
// column, rather than constants a Find filter could embed directly.
func whereHasColumnArithmetic(e *sqlparse.Expr) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case sqlparse.ExprBinary:
		switch e.Op {
		case "AND", "OR":
			return whereHasColumnArithmetic(e.Left) || whereHasColumnArithmetic(e.Right)
		case "=", "!=", "<>", ">", "<", ">=", "<=":
			return (isArithmeticExpr(e.Left) && exprHasColumn(e.Left)) ||
				(isArithmeticExpr(e.Right) && exprHasColumn(e.Right))
		default:
			return false
		}
	case sqlparse.ExprUnary:
		return whereHasColumnArithmetic(e.Operand)
	default:
		return false
	}
}

// isArithmeticExpr reports whether e is itself an arithmetic operator node
// (as opposed to a column, literal, or comparison).
func isArithmeticExpr(e *sqlparse.Expr) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case sqlparse.ExprBinary:
		_, ok := arithmeticAggOp[e.Op]
		return ok
	case sqlparse.ExprUnary:
		return e.Op == "-"
	default:
		return false
	}
}

// exprHasColumn reports whether e's subtree references any column.
func exprHasColumn(e *sqlparse.Expr) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case sqlparse.ExprColumn:
		return true
	case sqlparse.ExprBinary:
		return exprHasColumn(e.Left) || exprHasColumn(e.Right)
	case sqlparse.ExprUnary:
		return exprHasColumn(e.Operand)
	default:
		return false
	}
}

func buildFind(stmt *sqlparse.SelectStmt, filter bson.D) (*command.QueryCommand, error) {
	q := &command.QueryCommand{Op: command.OpFind, Collection: stmt.From, Filter: filter}

	if len(stmt.Items) > 0 && !(len(stmt.Items) == 1 && stmt.Items[0].Kind == sqlparse.ItemStar) {
		proj := make(bson.D, 0, len(stmt.Items))
		for _, item := range stmt.Items {
			if item.Kind != sqlparse.ItemField {
				return nil, fmt.Errorf("unexpected select item in a non-aggregating query")
			}
			name := item.Path
			if item.Alias != "" {
				name = item.Alias
			}
			proj = append(proj, bson.E{Key: name, Value: "$" + item.Path})
		}
		q.FindOpts.Projection = proj
	}

	if len(stmt.OrderBy) > 0 {
		sort := make(bson.D, 0, len(stmt.OrderBy))
		for _, ord := range stmt.OrderBy {
			dir := int32(1)
			if ord.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ord.Path, Value: dir})
		}
		q.FindOpts.Sort = sort
	}
	if stmt.Limit != nil {
		q.FindOpts.Limit = stmt.Limit
	}
	if stmt.Offset != nil {
		q.FindOpts.Skip = stmt.Offset
	}
	return q, nil
}

// buildAggregatePipeline stages $match, $group, $project, $sort (in that
// order), then $skip/$limit, matching the GROUP BY worked example in
// spec.md §8 scenario 3.
func buildAggregatePipeline(stmt *sqlparse.SelectStmt, filter bson.D) (*command.QueryCommand, error) {
	var pipeline []bson.D
	if len(filter) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: filter}})
	}

	if len(stmt.GroupBy) == 0 && !hasAggregateItem(stmt) {
		return buildUngroupedPipeline(stmt, pipeline)
	}

	var groupID any
	if len(stmt.GroupBy) > 0 {
		idDoc := make(bson.D, 0, len(stmt.GroupBy))
		for _, field := range stmt.GroupBy {
			idDoc = append(idDoc, bson.E{Key: sanitizeGroupKey(field), Value: "$" + field})
		}
		groupID = idDoc
	}

	group := bson.D{{Key: "_id", Value: groupID}}
	project := bson.D{{Key: "_id", Value: 0}}

	for _, item := range stmt.Items {
		switch item.Kind {
		case sqlparse.ItemField:
			if !containsField(stmt.GroupBy, item.Path) {
				return nil, fmt.Errorf("column %q must appear in GROUP BY or be aggregated", item.Path)
			}
			name := aliasOr(item.Alias, item.Path)
			project = append(project, bson.E{Key: name, Value: "$_id." + sanitizeGroupKey(item.Path)})
		case sqlparse.ItemAggregate:
			name := aliasOr(item.Alias, string(item.Func)+"_"+item.ArgPath)
			expr, err := aggregateExpr(item)
			if err != nil {
				return nil, err
			}
			group = append(group, bson.E{Key: name, Value: expr})
			project = append(project, bson.E{Key: name, Value: "$" + name})
		case sqlparse.ItemStar:
			return nil, fmt.Errorf("SELECT * cannot be combined with GROUP BY or an aggregate function")
		}
	}

	pipeline = append(pipeline, bson.D{{Key: "$group", Value: group}})
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: project}})

	if len(stmt.OrderBy) > 0 {
		sort := make(bson.D, 0, len(stmt.OrderBy))
		for _, ord := range stmt.OrderBy {
			dir := int32(1)
			if ord.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: aliasForOrderField(stmt, ord.Path), Value: dir})
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if stmt.Offset != nil {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: *stmt.Offset}})
	}
	if stmt.Limit != nil {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: *stmt.Limit}})
	}

	return &command.QueryCommand{Op: command.OpAggregate, Collection: stmt.From, Pipeline: pipeline}, nil
}

// buildUngroupedPipeline stages $project/$sort/$skip/$limit for a SELECT
// forced into pipeline mode purely by WHERE-clause column arithmetic, with
// no GROUP BY or aggregate select items — equivalent in shape to buildFind,
// just expressed as pipeline stages instead of Find options.
func buildUngroupedPipeline(stmt *sqlparse.SelectStmt, pipeline []bson.D) (*command.QueryCommand, error) {
	if len(stmt.Items) > 0 && !(len(stmt.Items) == 1 && stmt.Items[0].Kind == sqlparse.ItemStar) {
		proj := make(bson.D, 0, len(stmt.Items))
		for _, item := range stmt.Items {
			if item.Kind != sqlparse.ItemField {
				return nil, fmt.Errorf("unexpected select item in a non-aggregating query")
			}
			name := aliasOr(item.Alias, item.Path)
			proj = append(proj, bson.E{Key: name, Value: "$" + item.Path})
		}
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})
	}
	if len(stmt.OrderBy) > 0 {
		sort := make(bson.D, 0, len(stmt.OrderBy))
		for _, ord := range stmt.OrderBy {
			dir := int32(1)
			if ord.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ord.Path, Value: dir})
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if stmt.Offset != nil {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: *stmt.Offset}})
	}
	if stmt.Limit != nil {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: *stmt.Limit}})
	}
	return &command.QueryCommand{Op: command.OpAggregate, Collection: stmt.From, Pipeline: pipeline}, nil
}

func aliasForOrderField(stmt *sqlparse.SelectStmt, path string) string {
	for _, item := range stmt.Items {
		if item.Kind == sqlparse.ItemField && item.Path == path && item.Alias != "" {
			return item.Alias
		}
	}
	return path
}

func containsField(fields []string, path string) bool {
	for _, f := range fields {
		if f == path {
			return true
		}
	}
	return false
}

func aliasOr(alias, fallback string) string {
	if alias != "" {
		return alias
	}
	return fallback
}

// sanitizeGroupKey replaces '.' with '_' so a dotted source field can be
// used as a literal _id sub-document key.
func sanitizeGroupKey(path string) string {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out = append(out, '_')
			continue
		}
		out = append(out, path[i])
	}
	return string(out)
}

func aggregateExpr(item sqlparse.SelectItem) (bson.D, error) {
	switch item.Func {
	case sqlparse.AggCount:
		if item.Distinct {
			return bson.D{{Key: "$addToSet", Value: "$" + item.ArgPath}}, nil
		}
		return bson.D{{Key: "$sum", Value: 1}}, nil
	case sqlparse.AggSum:
		return bson.D{{Key: "$sum", Value: "$" + item.ArgPath}}, nil
	case sqlparse.AggAvg:
		return bson.D{{Key: "$avg", Value: "$" + item.ArgPath}}, nil
	case sqlparse.AggMin:
		return bson.D{{Key: "$min", Value: "$" + item.ArgPath}}, nil
	case sqlparse.AggMax:
		return bson.D{{Key: "$max", Value: "$" + item.ArgPath}}, nil
	default:
		return nil, fmt.Errorf("unsupported aggregate function %q", item.Func)
	}
}

// --- WHERE expression lowering ---

func whereToFilter(e *sqlparse.Expr) (bson.D, error) {
	if e == nil {
		return bson.D{}, nil
	}
	v, err := lowerExpr(e)
	if err != nil {
		return nil, err
	}
	d, ok := v.(bson.D)
	if !ok {
		return bson.D{{Key: "$expr", Value: v}}, nil
	}
	return d, nil
}

var comparisonMongoOp = map[string]string{
	"=": "$eq", "!=": "$ne", "<>": "$ne", ">": "$gt", "<": "$lt", ">=": "$gte", "<=": "$lte",
}

// lowerExpr converts a WHERE-clause Expr into either a bson.D filter
// fragment (for AND/OR/comparisons rooted at a column) or a raw scalar value
// (for sub-expressions being compared against).
func lowerExpr(e *sqlparse.Expr) (any, error) {
	switch e.Kind {
	case sqlparse.ExprBinary:
		switch e.Op {
		case "AND", "OR":
			left, err := lowerExpr(e.Left)
			if err != nil {
				return nil, err
			}
			right, err := lowerExpr(e.Right)
			if err != nil {
				return nil, err
			}
			op := "$and"
			if e.Op == "OR" {
				op = "$or"
			}
			return bson.D{{Key: op, Value: bson.A{left, right}}}, nil
		case "=", "!=", "<>", ">", "<", ">=", "<=":
			if e.Left.Kind == sqlparse.ExprColumn {
				rhs, err := literalValue(e.Right)
				if err != nil {
					return nil, err
				}
				mop := comparisonMongoOp[e.Op]
				if mop == "$eq" {
					return bson.D{{Key: e.Left.Path, Value: rhs}}, nil
				}
				return bson.D{{Key: e.Left.Path, Value: bson.D{{Key: mop, Value: rhs}}}}, nil
			}
			if isArithmeticExpr(e.Left) || isArithmeticExpr(e.Right) {
				// One side computes over columns (e.g. `price - discount`);
				// only $expr with an aggregation expression can compare that
				// against the other side (spec.md §4.3 rule 3).
				left, err := evalArithmetic(e.Left)
				if err != nil {
					return nil, err
				}
				right, err := evalArithmetic(e.Right)
				if err != nil {
					return nil, err
				}
				return bson.D{{Key: "$expr", Value: bson.D{{Key: comparisonMongoOp[e.Op], Value: bson.A{left, right}}}}}, nil
			}
			return nil, fmt.Errorf("comparison left-hand side must be a column")
		case "LIKE":
			if e.Left.Kind != sqlparse.ExprColumn || e.Right.Kind != sqlparse.ExprString {
				return nil, fmt.Errorf("LIKE requires column LIKE 'pattern'")
			}
			return bson.D{{Key: e.Left.Path, Value: bson.Regex{Pattern: likeToRegex(e.Right.Str), Options: ""}}}, nil
		default:
			return nil, fmt.Errorf("unsupported binary operator %q in WHERE", e.Op)
		}
	case sqlparse.ExprUnary:
		if e.Op == "NOT" {
			inner, err := lowerExpr(e.Operand)
			if err != nil {
				return nil, err
			}
			innerDoc, ok := inner.(bson.D)
			if !ok {
				return nil, fmt.Errorf("NOT requires a boolean sub-expression")
			}
			return bson.D{{Key: "$nor", Value: bson.A{innerDoc}}}, nil
		}
		return nil, fmt.Errorf("unsupported unary operator %q in WHERE", e.Op)
	case sqlparse.ExprIn:
		if e.Left.Kind != sqlparse.ExprColumn {
			return nil, fmt.Errorf("IN requires a column on the left")
		}
		values := make(bson.A, 0, len(e.List))
		for _, v := range e.List {
			lv, err := literalValue(v)
			if err != nil {
				return nil, err
			}
			values = append(values, lv)
		}
		op := "$in"
		if e.Negated {
			op = "$nin"
		}
		return bson.D{{Key: e.Left.Path, Value: bson.D{{Key: op, Value: values}}}}, nil
	case sqlparse.ExprIsNull:
		if e.Left.Kind != sqlparse.ExprColumn {
			return nil, fmt.Errorf("IS NULL requires a column")
		}
		if e.IsNotNull {
			return bson.D{{Key: e.Left.Path, Value: bson.D{{Key: "$ne", Value: nil}}}}, nil
		}
		return bson.D{{Key: e.Left.Path, Value: nil}}, nil
	case sqlparse.ExprColumn:
		return bson.D{{Key: e.Path, Value: bson.D{{Key: "$ne", Value: false}}}}, nil
	default:
		v, err := literalValue(e)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func literalValue(e *sqlparse.Expr) (any, error) {
	switch e.Kind {
	case sqlparse.ExprColumn:
		return "$" + e.Path, nil
	case sqlparse.ExprString:
		return e.Str, nil
	case sqlparse.ExprInt:
		return e.Int, nil
	case sqlparse.ExprFloat:
		return e.Float, nil
	case sqlparse.ExprBool:
		return e.Bool, nil
	case sqlparse.ExprNull:
		return nil, nil
	case sqlparse.ExprTypedLiteral:
		return parseTypedLiteral(e.TypeName, e.Str)
	case sqlparse.ExprTimeFunc:
		return bson.NewDateTimeFromTime(time.Now()), nil
	case sqlparse.ExprBinary, sqlparse.ExprUnary:
		return evalArithmetic(e)
	default:
		return nil, fmt.Errorf("unsupported value expression")
	}
}

func parseTypedLiteral(typeName, lit string) (any, error) {
	layout := time.RFC3339
	switch typeName {
	case "DATE":
		layout = "2006-01-02"
	case "TIME":
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, lit)
	if err != nil {
		return nil, fmt.Errorf("invalid %s literal %q", typeName, lit)
	}
	return bson.NewDateTimeFromTime(t), nil
}

// arithmeticAggOp maps a SQL arithmetic operator to the aggregation-pipeline
// expression operator it lowers to when it can't be constant-folded.
var arithmeticAggOp = map[string]string{
	"+": "$add", "-": "$subtract", "*": "$multiply", "/": "$divide", "%": "$mod",
}

// evalArithmetic evaluates an arithmetic sub-expression. When every operand
// is a literal, it folds to a plain number at translation time; when an
// operand is a column reference instead, it lowers to the matching
// $add/$subtract/$multiply/$divide/$mod aggregation expression, deferring
// the computation to the server inside a $match's $expr (spec.md §4.3 rule
// 3 — the caller is responsible for forcing pipeline mode in that case).
func evalArithmetic(e *sqlparse.Expr) (any, error) {
	switch e.Kind {
	case sqlparse.ExprInt:
		return e.Int, nil
	case sqlparse.ExprFloat:
		return e.Float, nil
	case sqlparse.ExprColumn:
		return "$" + e.Path, nil
	case sqlparse.ExprUnary:
		if e.Op != "-" {
			return nil, fmt.Errorf("unsupported unary operator %q in arithmetic expression", e.Op)
		}
		v, err := evalArithmetic(e.Operand)
		if err != nil {
			return nil, err
		}
		if f, ok := toFloat(v); ok {
			return -f, nil
		}
		return bson.D{{Key: "$multiply", Value: bson.A{v, -1}}}, nil
	case sqlparse.ExprBinary:
		aggOp, ok := arithmeticAggOp[e.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported arithmetic operator %q", e.Op)
		}
		l, err := evalArithmetic(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := evalArithmetic(e.Right)
		if err != nil {
			return nil, err
		}
		lf, lok := toFloat(l)
		rf, rok := toFloat(r)
		if lok && rok {
			switch e.Op {
			case "+":
				return lf + rf, nil
			case "-":
				return lf - rf, nil
			case "*":
				return lf * rf, nil
			case "/":
				return lf / rf, nil
			case "%":
				return float64(int64(lf) % int64(rf)), nil
			}
		}
		return bson.D{{Key: aggOp, Value: bson.A{l, r}}}, nil
	default:
		return nil, fmt.Errorf("non-constant expression in value position")
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// likeToRegex translates SQL LIKE wildcards (% and _) into a regex pattern.
func likeToRegex(pattern string) string {
	out := make([]byte, 0, len(pattern)*2)
	out = append(out, '^')
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '%':
			out = append(out, '.', '*')
		case '_':
			out = append(out, '.')
		case '.', '*', '+', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	out = append(out, '$')
	return string(out)
}
